package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSyncMetricsRecordsRunsAndOrders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.Started()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.inFlight))
	m.ObserveRun("full", OutcomeSuccess, 2*time.Second)
	m.ObserveRun("full", OutcomeConflict, 0)
	m.AddOrders("full", 12)
	m.AddOrders("full", 0)
	m.Finished()

	assert.Equal(t, 2, testutil.CollectAndCount(m.runs))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("full", OutcomeConflict)))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.orders.WithLabelValues("full")))
	assert.Zero(t, testutil.ToFloat64(m.inFlight))

	hist := sample(t, reg, "storepulse_sync_duration_seconds", map[string]string{"mode": "full"}).GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount(), "conflicts are not timed")
	assert.Equal(t, float64(2), hist.GetSampleSum())
}
