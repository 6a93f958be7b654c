package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the monitor pipeline.
type Metrics struct {
	BatchesTotal  prometheus.Counter
	BatchDur      prometheus.Histogram
	TargetsOK     prometheus.Counter
	TargetsFailed prometheus.Counter
	TargetDur     prometheus.Histogram
	SignalsTotal  *prometheus.CounterVec // labels: signal_type
	BridgeDropped prometheus.Counter
	FetchRetries  prometheus.Counter
	BreakerState  *prometheus.GaugeVec // labels: exchange; 0=closed, 1=open, 2=half-open
	ConnectedWS   prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_batches_total",
			Help: "Total scheduler cycles executed",
		}),
		BatchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_batch_duration_seconds",
			Help:    "Wall time of one full batch",
			Buckets: prometheus.DefBuckets,
		}),
		TargetsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_targets_processed_total",
			Help: "Targets processed successfully",
		}),
		TargetsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_targets_failed_total",
			Help: "Targets that failed processing",
		}),
		TargetDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_target_duration_seconds",
			Help:    "Per-target processing latency (fetch to enqueue)",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_signals_total",
			Help: "Signal events emitted (by type)",
		}, []string{"signal_type"}),
		BridgeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_bridge_dropped_total",
			Help: "Messages dropped on a full notification bridge",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_fetch_retries_total",
			Help: "Candle fetch retry attempts",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monitor_exchange_breaker_state",
			Help: "Exchange circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"exchange"}),
		ConnectedWS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_ws_clients",
			Help: "Currently connected WebSocket subscribers",
		}),
	}

	prometheus.MustRegister(
		m.BatchesTotal,
		m.BatchDur,
		m.TargetsOK,
		m.TargetsFailed,
		m.TargetDur,
		m.SignalsTotal,
		m.BridgeDropped,
		m.FetchRetries,
		m.BreakerState,
		m.ConnectedWS,
	)

	return m
}

// BatchCompleted implements the monitor's observer hook.
func (m *Metrics) BatchCompleted(success, failed int, elapsed time.Duration) {
	m.BatchesTotal.Inc()
	m.BatchDur.Observe(elapsed.Seconds())
	m.TargetsOK.Add(float64(success))
	m.TargetsFailed.Add(float64(failed))
}

// TargetProcessed implements the monitor's observer hook.
func (m *Metrics) TargetProcessed(targetKey string, err error, elapsed time.Duration) {
	m.TargetDur.Observe(elapsed.Seconds())
}

// SignalEmitted implements the monitor's observer hook.
func (m *Metrics) SignalEmitted(signalType string) {
	m.SignalsTotal.WithLabelValues(signalType).Inc()
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	RedisEnabled   bool      `json:"redis_enabled"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastBatchAt    time.Time `json:"last_batch_at"`
	LastBatchOK    bool      `json:"last_batch_ok"`
	Targets        int       `json:"targets"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(targets int) *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
		Targets:   targets,
		SQLiteOK:  true,
	}
}

func (h *HealthStatus) SetBatchResult(ok bool) {
	h.mu.Lock()
	h.LastBatchAt = time.Now()
	h.LastBatchOK = ok
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the journal database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.LastBatchOK || !h.SQLiteOK || (h.RedisEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	batchAge := ""
	if !h.LastBatchAt.IsZero() {
		batchAge = time.Since(h.LastBatchAt).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		Targets         int     `json:"targets"`
		LastBatchAt     string  `json:"last_batch_at"`
		LastBatchOK     bool    `json:"last_batch_ok"`
		BatchAge        string  `json:"batch_age"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Targets:         h.Targets,
		LastBatchAt:     h.LastBatchAt.Format(time.RFC3339),
		LastBatchOK:     h.LastBatchOK,
		BatchAge:        batchAge,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
