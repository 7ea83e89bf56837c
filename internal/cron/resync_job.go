package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

const (
	ResyncJobName            = "store-resync"
	defaultResyncConcurrency = 4
)

type connectedStoreLister interface {
	ListConnected(ctx context.Context) ([]models.Store, error)
}

type storeSyncer interface {
	Run(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) error
}

// ResyncJobParams configure the periodic resync.
type ResyncJobParams struct {
	Logger      *logger.Logger
	Stores      connectedStoreLister
	Syncer      storeSyncer
	Concurrency int
}

// NewResyncJob builds the job that resyncs every connected store.
func NewResyncJob(params ResyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store lister required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("syncer required")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultResyncConcurrency
	}
	return &resyncJob{
		logg:        params.Logger,
		stores:      params.Stores,
		syncer:      params.Syncer,
		concurrency: concurrency,
	}, nil
}

type resyncJob struct {
	logg        *logger.Logger
	stores      connectedStoreLister
	syncer      storeSyncer
	concurrency int
}

func (j *resyncJob) Name() string { return ResyncJobName }

// Run resyncs stores concurrently. A failing store does not stop the others;
// stores that are already syncing are skipped.
func (j *resyncJob) Run(ctx context.Context) error {
	stores, err := j.stores.ListConnected(ctx)
	if err != nil {
		return fmt.Errorf("list connected stores: %w", err)
	}

	var (
		mu      sync.Mutex
		errs    error
		synced  int
		skipped int
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.concurrency)
	for _, store := range stores {
		store := store
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			err := j.syncer.Run(groupCtx, store.ID, enums.SyncModeIncremental)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				synced++
			case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
				skipped++
			default:
				errs = multierr.Append(errs, fmt.Errorf("store %s: %w", store.ID, err))
			}
			return nil
		})
	}
	_ = group.Wait()

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"stores":  len(stores),
		"synced":  synced,
		"skipped": skipped,
		"failed":  len(multierr.Errors(errs)),
	}), "store resync finished")
	return errs
}
