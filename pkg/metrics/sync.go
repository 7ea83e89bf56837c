package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync outcomes used as label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
)

// SyncMetrics tracks store sync runs.
type SyncMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orders   *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Store sync runs by mode and outcome.",
	}, []string{"mode", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Wall time of store sync runs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"mode"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "orders_ingested_total",
		Help:      "Orders inserted by sync runs.",
	}, []string{"mode"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "in_flight",
		Help:      "Sync runs currently executing in this process.",
	})
	reg.MustRegister(runs, duration, orders, inFlight)
	return &SyncMetrics{runs: runs, duration: duration, orders: orders, inFlight: inFlight}
}

// ObserveRun records the outcome and wall time of one run.
func (s *SyncMetrics) ObserveRun(mode, outcome string, elapsed time.Duration) {
	if s == nil || s.runs == nil {
		return
	}
	s.runs.WithLabelValues(normalizeLabel(mode), normalizeLabel(outcome)).Inc()
	if outcome != OutcomeConflict {
		s.duration.WithLabelValues(normalizeLabel(mode)).Observe(elapsed.Seconds())
	}
}

// AddOrders counts newly inserted orders.
func (s *SyncMetrics) AddOrders(mode string, n int) {
	if s == nil || s.orders == nil || n <= 0 {
		return
	}
	s.orders.WithLabelValues(normalizeLabel(mode)).Add(float64(n))
}

// Started and Finished bracket a running sync.
func (s *SyncMetrics) Started() {
	if s == nil || s.inFlight == nil {
		return
	}
	s.inFlight.Inc()
}

func (s *SyncMetrics) Finished() {
	if s == nil || s.inFlight == nil {
		return
	}
	s.inFlight.Dec()
}
