package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"signal-systemv1/internal/exchange"
	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/notify"
	"signal-systemv1/internal/strategy"
)

// SeriesStore is the persisted per-target candle series.
type SeriesStore interface {
	Merge(t model.Target, incoming model.Series) (model.Series, error)
	WriteDerived(t model.Target, series model.Series, res indicator.TrailingStopResult) error
}

// Observer receives pipeline measurements (Prometheus in production, nil in
// tests).
type Observer interface {
	BatchCompleted(success, failed int, elapsed time.Duration)
	TargetProcessed(targetKey string, err error, elapsed time.Duration)
	SignalEmitted(signalType string)
}

// Config tunes the monitor loop.
type Config struct {
	FetchLimit     int
	TailCalc       int
	MaxWorkers     int
	PeriodMinutes  int
	TriggerSecond  int
	PersistDerived bool
}

// Monitor owns the full per-cycle pipeline: fetch, merge, compute, detect,
// enqueue. One Monitor instance serves all targets.
type Monitor struct {
	cfg     Config
	targets []model.Target
	sources map[string]exchange.Source
	store   SeriesStore
	strat   strategy.Strategy
	states  *StateMap
	bridge  *notify.Bridge
	obs     Observer
}

func New(cfg Config, targets []model.Target, sources map[string]exchange.Source,
	store SeriesStore, strat strategy.Strategy, bridge *notify.Bridge, obs Observer) *Monitor {
	return &Monitor{
		cfg:     cfg,
		targets: targets,
		sources: sources,
		store:   store,
		strat:   strat,
		states:  NewStateMap(),
		bridge:  bridge,
		obs:     obs,
	}
}

// States exposes the state map for health reporting.
func (m *Monitor) States() *StateMap { return m.states }

// Run performs one immediate sync pass, then follows the trigger schedule
// until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("monitor started", "targets", len(m.targets))
	if err := m.cycle(ctx); err != nil {
		slog.Error("startup sync failed", "err", err)
	}
	sched := &Scheduler{
		PeriodMinutes: m.cfg.PeriodMinutes,
		TriggerSecond: m.cfg.TriggerSecond,
		Cycle:         m.cycle,
	}
	sched.Run(ctx)
}

// cycle processes all enabled targets once. It returns an error only when
// every target failed, which signals the scheduler to apply its cooldown.
func (m *Monitor) cycle(ctx context.Context) error {
	enabled := lo.Filter(m.targets, func(t model.Target, _ int) bool { return t.Enabled })
	if len(enabled) == 0 {
		return nil
	}

	res := ProcessBatch(ctx, enabled, m.cfg.MaxWorkers, m.processTarget)

	for key, err := range res.Errors {
		slog.Error("target failed", "target", key, "err", err)
	}
	slog.Info("batch completed",
		"success", res.SuccessCount,
		"failed", res.ErrorCount,
		"elapsed", res.Elapsed)
	if m.obs != nil {
		m.obs.BatchCompleted(res.SuccessCount, res.ErrorCount, res.Elapsed)
	}

	if res.ErrorCount > 0 {
		m.bridge.Push(notify.Notification(notify.LevelError,
			fmt.Sprintf("batch completed with %d failed / %d ok targets in %s",
				res.ErrorCount, res.SuccessCount, res.Elapsed.Round(time.Millisecond))))
	}
	if res.SuccessCount == 0 {
		return fmt.Errorf("all %d targets failed", res.ErrorCount)
	}
	// Cancellation is the scheduler's concern; a batch that succeeded is not
	// a cycle failure even when shutdown arrived mid-batch.
	return nil
}

// processTarget runs the per-target pipeline: fetch with retry, merge into
// the series store, compute indicators over the tail window, feed the state
// machine, and enqueue an event when a transition fired.
func (m *Monitor) processTarget(ctx context.Context, t model.Target) error {
	start := time.Now()
	err := m.process(ctx, t)
	if m.obs != nil {
		m.obs.TargetProcessed(t.Key(), err, time.Since(start))
	}
	return err
}

func (m *Monitor) process(ctx context.Context, t model.Target) error {
	src, ok := m.sources[strings.ToLower(t.Exchange)]
	if !ok {
		return fmt.Errorf("no source for exchange %q", t.Exchange)
	}

	fetched, err := src.FetchCandles(ctx, t.Symbol, t.Timeframe, m.cfg.FetchLimit)
	if err != nil {
		return err
	}
	if len(fetched) == 0 {
		return fmt.Errorf("empty candle response for %s", t.Key())
	}

	merged, err := m.store.Merge(t, fetched)
	if err != nil {
		return fmt.Errorf("merge series: %w", err)
	}
	window := merged.Tail(m.cfg.TailCalc)
	if err := window.Validate(); err != nil {
		return fmt.Errorf("series window: %w", err)
	}

	out, err := m.strat.ComputeSignals(window, t.Timeframe)
	if err != nil {
		return fmt.Errorf("compute signals: %w", err)
	}

	last := out.Trailing.Len() - 1
	if sig, fired := m.states.Transition(t.Key(), out.Trailing.Buy[last], out.Trailing.Sell[last]); fired {
		event := model.SignalEvent{
			ID:        uuid.NewString(),
			Target:    t,
			Type:      sig,
			Price:     window.LastClose(),
			BarTime:   window[len(window)-1].Time(),
			EmittedAt: time.Now().UTC(),
			Zones:     out.Zones,
		}
		slog.Info("signal emitted",
			"target", t.Key(),
			"signal", string(sig),
			"price", event.Price)
		if !m.bridge.PushSignal(event) {
			slog.Warn("bridge full, signal dropped", "target", t.Key())
		}
		if m.obs != nil {
			m.obs.SignalEmitted(string(sig))
		}
	}

	if m.cfg.PersistDerived {
		if err := m.store.WriteDerived(t, window, out.Trailing); err != nil {
			return fmt.Errorf("persist derived series: %w", err)
		}
	}
	return nil
}
