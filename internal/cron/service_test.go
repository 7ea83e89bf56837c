package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
	ctx   context.Context
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	t.ctx = ctx
	if t.panic {
		panic("job exploded")
	}
	return t.err
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: logger.ParseLevel("error")})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	registry, err := NewRegistry(failing, ok)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:   newTestLogger(),
		Registry: registry,
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "store-resync"}
	reg := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(reg)
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:   newTestLogger(),
		Registry: registry,
		Lock:     &fakeLock{held: true},
		Metrics:  cronMetrics,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Zero(t, job.runs)

	families, err := reg.Gather()
	require.NoError(t, err)
	var skipped float64
	for _, family := range families {
		if family.GetName() == "storepulse_cron_cycle_skipped_total" {
			for _, m := range family.GetMetric() {
				skipped += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), skipped)
}

func TestNewServiceRequiresLockAndRegistry(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = NewService(ServiceParams{Logger: newTestLogger(), Registry: registry})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: newTestLogger(), Lock: &fakeLock{}})
	require.Error(t, err)

	service, err := NewService(ServiceParams{Logger: newTestLogger(), Lock: &fakeLock{}, Registry: registry})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, service.interval)
}

func TestServiceRecoversPanickingJobAndAppliesTimeout(t *testing.T) {
	exploding := &testJob{name: "explode", panic: true}
	after := &testJob{name: "after"}
	reg := prometheus.NewRegistry()
	registry, err := NewRegistry(exploding, after)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:     newTestLogger(),
		Registry:   registry,
		Lock:       &fakeLock{},
		Metrics:    metrics.NewCronJobMetrics(reg),
		JobTimeout: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, after.runs)
	deadline, ok := after.ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	expected := `
# HELP storepulse_cron_job_runs_total Scheduled job runs by outcome.
# TYPE storepulse_cron_job_runs_total counter
storepulse_cron_job_runs_total{job="after",outcome="success"} 1
storepulse_cron_job_runs_total{job="explode",outcome="failure"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "storepulse_cron_job_runs_total"))
}

func TestServiceStopsCycleWhenContextCanceled(t *testing.T) {
	job := &testJob{name: "never"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{Logger: newTestLogger(), Registry: registry, Lock: &fakeLock{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, service.RunOnce(ctx))
	assert.Zero(t, job.runs)
}
