package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCronJobMetricsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	before := time.Now().Unix()
	m.ObserveJob("store-resync", 3*time.Second, nil)
	m.ObserveJob("store-resync", time.Second, errors.New("shopify down"))
	m.ObserveJob("", time.Second, nil)
	m.IncSkipped("stale-sync-release")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("store-resync", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("store-resync", OutcomeFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("unknown", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.skipped.WithLabelValues("stale-sync-release")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("store-resync")), float64(before))

	hist := sample(t, reg, "storepulse_cron_job_duration_seconds", map[string]string{"job": "store-resync"}).GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.Equal(t, float64(4), hist.GetSampleSum())
}

func TestNilRegistererIsNoop(t *testing.T) {
	cron := NewCronJobMetrics(nil)
	cron.ObserveJob("job", time.Second, nil)
	cron.IncSkipped("job")

	var nilCron *CronJobMetrics
	nilCron.ObserveJob("job", time.Second, errors.New("x"))

	var sync *SyncMetrics
	sync.ObserveRun("full", OutcomeSuccess, time.Second)
	sync.Started()
	NewSyncMetrics(nil).AddOrders("full", 3)
}
