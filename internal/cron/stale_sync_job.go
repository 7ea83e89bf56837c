package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

const (
	StaleSyncJobName  = "stale-sync-release"
	defaultStaleAfter = 2 * time.Hour
)

type staleGuardReleaser interface {
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleSyncJobParams configure the stale guard recovery.
type StaleSyncJobParams struct {
	Logger     *logger.Logger
	Stores     staleGuardReleaser
	StaleAfter time.Duration
}

// NewStaleSyncJob builds the job that clears sync guards left behind by a
// process that died mid-sync.
func NewStaleSyncJob(params StaleSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &staleSyncJob{logg: params.Logger, stores: params.Stores, staleAfter: staleAfter, now: time.Now}, nil
}

type staleSyncJob struct {
	logg       *logger.Logger
	stores     staleGuardReleaser
	staleAfter time.Duration
	now        func() time.Time
}

func (j *staleSyncJob) Name() string { return StaleSyncJobName }

func (j *staleSyncJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	released, err := j.stores.ReleaseStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("release stale sync guards: %w", err)
	}
	if released > 0 {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"released": released,
			"cutoff":   cutoff.Format(time.RFC3339),
		}), "released stale sync guards")
	}
	return nil
}
