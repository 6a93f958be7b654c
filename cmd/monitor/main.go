// Command monitor runs the trend-signal monitoring service: it fetches
// candles for every configured target on a wall-clock schedule, computes
// trailing-stop signals, and fans emitted events out to WebSocket
// subscribers, Telegram, Redis and the SQLite journal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"signal-systemv1/config"
	"signal-systemv1/internal/exchange"
	"signal-systemv1/internal/gateway"
	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/logger"
	"signal-systemv1/internal/metrics"
	"signal-systemv1/internal/monitor"
	"signal-systemv1/internal/notify"
	"signal-systemv1/internal/srlevels"
	csvstore "signal-systemv1/internal/store/csv"
	redisstore "signal-systemv1/internal/store/redis"
	"signal-systemv1/internal/store/sqlite"
	"signal-systemv1/internal/strategy"
)

const (
	breakerMaxFailures = 5
	breakerResetAfter  = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// observer forwards pipeline measurements to Prometheus and keeps the health
// endpoint's batch status current.
type observer struct {
	*metrics.Metrics
	health *metrics.HealthStatus
}

func (o observer) BatchCompleted(success, failed int, elapsed time.Duration) {
	o.Metrics.BatchCompleted(success, failed, elapsed)
	o.health.SetBatchResult(success > 0)
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	logger.Init("monitor", slog.LevelInfo)

	cfg, err := config.Load(config.BindFlags())
	if err != nil {
		return err
	}
	logger.Init("monitor", logger.ParseLevel(cfg.LogLevel))

	targets := cfg.EnabledTargets()
	if len(targets) == 0 {
		return fmt.Errorf("no enabled targets configured")
	}

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus(len(targets))
	health.SetRedisEnabled(cfg.Redis.Enabled)

	store, err := csvstore.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open series store: %w", err)
	}

	journal, err := sqlite.New(sqlite.JournalConfig{DBPath: cfg.JournalPath})
	if err != nil {
		return fmt.Errorf("open signal journal: %w", err)
	}
	defer journal.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher *redisstore.Publisher
	if cfg.Redis.Enabled {
		publisher, err = redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			TTL:      time.Duration(cfg.Redis.TTLMinutes) * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer publisher.Close()
	}

	sources, err := buildSources(cfg, m)
	if err != nil {
		return err
	}

	strat, err := strategy.New(strategy.Config{
		Name: cfg.Strategy,
		Trailing: indicator.TrailingStopParams{
			MAType:        indicator.MAType(cfg.Indicator.MAType),
			MAPeriod:      cfg.Indicator.MAPeriod,
			ATRPeriod:     cfg.Indicator.ATRPeriod,
			Multiplier:    cfg.Indicator.Multiplier,
			UseHeikinAshi: cfg.Indicator.UseHeikinAshi,
			PriceSource:   indicator.PriceSource(cfg.Indicator.PriceSource),
			AllowBuy:      cfg.Indicator.AllowBuy,
			AllowSell:     cfg.Indicator.AllowSell,
		},
		SR: srlevels.Params{
			Timeframes:        cfg.SR.Timeframes,
			ShowSwings:        cfg.SR.ShowSwings,
			ShowPivots:        cfg.SR.ShowPivots,
			ShowFibonacci:     cfg.SR.ShowFibonacci,
			ShowOrderBlocks:   cfg.SR.ShowOrderBlocks,
			ShowVolumeProfile: cfg.SR.ShowVolumeProfile,
			ShowPsychological: cfg.SR.ShowPsychological,
			SwingLookback:     cfg.SR.SwingLookback,
			ClusterPercent:    cfg.SR.ClusterPercent,
			ShowWithinPercent: cfg.SR.ShowWithinPercent,
			TopN:              cfg.SR.TopN,
			ReactionLookback:  cfg.SR.ReactionLookback,
			MinConfluence:     cfg.SR.MinConfluence,
			SortBy:            srlevels.SortKey(cfg.SR.SortBy),
		},
	})
	if err != nil {
		return fmt.Errorf("build strategy: %w", err)
	}

	bridge := notify.NewBridge(cfg.BridgeCapacity)
	hub := gateway.NewHub(cfg.BacklogSize)

	opts := []notify.DispatcherOption{
		notify.WithJournal(journal),
	}
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		opts = append(opts, notify.WithNotifier(notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)))
	} else {
		opts = append(opts, notify.WithNotifier(notify.NewLogNotifier()))
	}
	if publisher != nil {
		opts = append(opts, notify.WithSignalSink(publisher))
	}
	var lastDropped uint64
	opts = append(opts, notify.WithDispatchHook(func(notify.Message) {
		m.ConnectedWS.Set(float64(hub.ClientCount()))
		if d := bridge.Dropped(); d > lastDropped {
			m.BridgeDropped.Add(float64(d - lastDropped))
			lastDropped = d
		}
	}))
	dispatcher := notify.NewDispatcher(bridge, hub, opts...)

	mon := monitor.New(monitor.Config{
		FetchLimit:     cfg.FetchLimit,
		TailCalc:       cfg.TailCalc,
		MaxWorkers:     cfg.MaxWorkers,
		PeriodMinutes:  cfg.TriggerMinutes,
		TriggerSecond:  cfg.TriggerSecond,
		PersistDerived: cfg.PersistDerived,
	}, targets, sources, store, strat, bridge, observer{Metrics: m, health: health})

	if publisher != nil {
		health.StartLivenessChecker(ctx, publisher.Client(), journal.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, journal.DB(), 30*time.Second)
	}

	msrv := metrics.NewServer(cfg.MetricsAddr, health)
	msrv.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	wsSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		slog.Info("gateway listening", "addr", cfg.ListenAddr)
		if err := wsSrv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("gateway server error", "err", err)
		}
	}()

	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(dispatcherDone)
	}()

	bridge.Push(notify.Notification(notify.LevelInfo,
		fmt.Sprintf("monitor started: %d targets, strategy %s, every %dm at :%02ds",
			len(targets), strat.Name(), cfg.TriggerMinutes, cfg.TriggerSecond)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(ctx)
	}()

	<-ctx.Done()
	slog.Info("shutdown requested")

	// Workers stop first, then the bridge closes so the dispatcher drains
	// everything already enqueued before the sinks go away.
	wg.Wait()
	bridge.Close()
	<-dispatcherDone
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	wsSrv.Shutdown(shutdownCtx)
	msrv.Stop(shutdownCtx)

	slog.Info("monitor stopped")
	return nil
}

// buildSources constructs the per-exchange fetch chain: adapter, circuit
// breaker, retrier. The breaker sits inside the retrier so a tripped breaker
// fails retries fast instead of sleeping through them.
func buildSources(cfg *config.Config, m *metrics.Metrics) (map[string]exchange.Source, error) {
	sources := make(map[string]exchange.Source)
	for name, ex := range cfg.Exchanges {
		if !ex.Enabled {
			continue
		}
		base, err := exchange.New(name, exchange.Options{RateLimit: ex.RateLimit})
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", name, err)
		}
		breaker := exchange.NewBreaker(base, breakerMaxFailures, breakerResetAfter)
		exName := strings.ToLower(name)
		breaker.OnStateChange = func(from, to exchange.BreakerState) {
			slog.Warn("circuit breaker state change",
				"exchange", exName, "from", from.String(), "to", to.String())
			m.BreakerState.WithLabelValues(exName).Set(float64(to))
		}
		retrier := exchange.NewRetrier(breaker, cfg.MaxRetries,
			time.Duration(cfg.RetryDelaySec)*time.Second)
		retrier.OnRetry = func(int) { m.FetchRetries.Inc() }
		sources[exName] = retrier
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no exchanges enabled")
	}
	return sources, nil
}
