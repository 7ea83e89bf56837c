// Package sync runs the per-store pipeline that pulls the platform catalog and
// orders, maintains the customer history and recomputes daily metrics.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/internal/customers"
	"github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/metrics"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

const defaultLookbackMonths = 6

// Pipeline stages, used in logs.
const (
	stageCatalog  = "catalog"
	stageOrders   = "orders"
	stageHistory  = "history"
	stageMetrics  = "metrics"
	stageFinalize = "finalize"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	TryBeginSync(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	FinishSync(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)
	AdvanceLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	SetCurrencyIfEmpty(ctx context.Context, id uuid.UUID, currency string) error
}

type feedFactory interface {
	ForStore(store models.Store) (shopify.Feed, error)
}

type catalogIngester interface {
	Ingest(ctx context.Context, feed shopify.Feed, store models.Store, window catalog.Window) (*catalog.IngestResult, error)
}

type orderIngester interface {
	Ingest(ctx context.Context, feed shopify.Feed, store models.Store, window orders.Window) (*orders.IngestResult, error)
}

type orderLister interface {
	ListAllByStore(ctx context.Context, storeID uuid.UUID) ([]models.Order, error)
	CustomerIDsBetween(ctx context.Context, storeID uuid.UUID, from, until time.Time) ([]string, error)
	ListByCustomers(ctx context.Context, storeID uuid.UUID, customerIDs []string) ([]models.Order, error)
}

type historyStore interface {
	Load(ctx context.Context, storeID uuid.UUID) (*customers.Index, error)
	Replace(ctx context.Context, storeID uuid.UUID, idx *customers.Index) error
	Upsert(ctx context.Context, storeID uuid.UUID, idx *customers.Index, touched map[string]struct{}) error
}

type metricRecomputer interface {
	Recompute(ctx context.Context, storeID uuid.UUID, classifier analytics.Classifier, from, to time.Time) (int, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, storeID uuid.UUID) error
}

// OrchestratorParams wires the orchestrator. Cache, Metrics and Now are optional.
type OrchestratorParams struct {
	Stores         storeRepository
	Feeds          feedFactory
	Catalog        catalogIngester
	Orders         orderIngester
	OrderHistory   orderLister
	Histories      historyStore
	Aggregator     metricRecomputer
	Cache          cacheInvalidator
	Metrics        *metrics.SyncMetrics
	Logger         *logger.Logger
	LookbackMonths int
	Now            func() time.Time
}

// Orchestrator runs full syncs and resyncs. Runs for different stores are
// independent; a store is never synced twice at once.
type Orchestrator struct {
	stores     storeRepository
	feeds      feedFactory
	catalog    catalogIngester
	orders     orderIngester
	history    orderLister
	histories  historyStore
	aggregator metricRecomputer
	cache      cacheInvalidator
	metrics    *metrics.SyncMetrics
	logg       *logger.Logger
	lookback   int
	now        func() time.Time

	wg gosync.WaitGroup
}

func NewOrchestrator(params OrchestratorParams) (*Orchestrator, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stores == nil || params.Feeds == nil || params.Catalog == nil || params.Orders == nil {
		return nil, fmt.Errorf("sync ingestion dependencies required")
	}
	if params.OrderHistory == nil || params.Histories == nil || params.Aggregator == nil {
		return nil, fmt.Errorf("sync aggregation dependencies required")
	}
	lookback := params.LookbackMonths
	if lookback <= 0 {
		lookback = defaultLookbackMonths
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		stores:     params.Stores,
		feeds:      params.Feeds,
		catalog:    params.Catalog,
		orders:     params.Orders,
		history:    params.OrderHistory,
		histories:  params.Histories,
		aggregator: params.Aggregator,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logg:       params.Logger,
		lookback:   lookback,
		now:        now,
	}, nil
}

// run carries one pipeline execution and the progress reported on failure.
type run struct {
	store     models.Store
	feed      shopify.Feed
	mode      enums.SyncMode
	startedAt time.Time

	stage     string
	cursor    string
	watermark time.Time
	inserted  int
}

// Run syncs the store and returns once the pipeline has finished.
func (o *Orchestrator) Run(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) error {
	r, err := o.begin(ctx, storeID, mode)
	if err != nil {
		return err
	}
	return o.execute(ctx, r)
}

// Start takes the store's sync guard and runs the pipeline in the background.
// Errors returned are the fail-fast checks; pipeline failures are only logged.
func (o *Orchestrator) Start(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) error {
	r, err := o.begin(ctx, storeID, mode)
	if err != nil {
		return err
	}
	runCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_ = o.execute(runCtx, r)
	}()
	return nil
}

// Wait blocks until every background run has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) begin(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) (*run, error) {
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sync mode %q", mode))
	}
	store, err := o.stores.FindByID(ctx, storeID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.Connected() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store is not connected to shopify")
	}
	feed, err := o.feeds.ForStore(*store)
	if err != nil {
		return nil, err
	}

	// Stored timestamps keep microseconds; the guard is released by matching it.
	startedAt := o.now().UTC().Truncate(time.Microsecond)
	acquired, err := o.stores.TryBeginSync(ctx, storeID, startedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync guard")
	}
	if !acquired {
		o.metrics.ObserveRun(mode.String(), metrics.OutcomeConflict, 0)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "store is already syncing")
	}

	if mode == enums.SyncModeIncremental && store.LastSyncAt == nil {
		mode = enums.SyncModeFull
	}
	return &run{store: *store, feed: feed, mode: mode, startedAt: startedAt}, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) (err error) {
	ctx = o.logg.WithStoreID(ctx, r.store.ID.String())
	ctx = o.logg.WithSyncMode(ctx, r.mode.String())
	o.metrics.Started()
	o.logg.Info(ctx, "sync started")

	defer func() {
		if rec := recover(); rec != nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("sync panicked: %v", rec))
		}
		released, releaseErr := o.stores.FinishSync(context.WithoutCancel(ctx), r.store.ID, r.startedAt)
		if releaseErr != nil {
			err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeInternal, releaseErr, "release sync guard"))
		} else if !released {
			o.logg.Warn(ctx, "sync guard was released as stale before the run finished")
		}
		o.finish(ctx, r, err)
	}()

	if r.mode == enums.SyncModeFull {
		return o.full(ctx, r)
	}
	return o.incremental(ctx, r)
}

func (o *Orchestrator) full(ctx context.Context, r *run) error {
	now := r.startedAt
	since := analytics.StartOfDay(now.AddDate(0, -o.lookback, 0))

	r.stage = stageCatalog
	if err := o.ingestCatalog(ctx, r, catalog.Window{Until: now}); err != nil {
		return err
	}

	r.stage = stageOrders
	if err := o.ingestOrders(ctx, r, orders.Window{Since: since, Until: now}); err != nil {
		return err
	}

	r.stage = stageHistory
	all, err := o.history.ListAllByStore(ctx, r.store.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stored orders")
	}
	idx := customers.NewIndex()
	idx.Rebuild(all)
	if err := o.histories.Replace(ctx, r.store.ID, idx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace customer histories")
	}

	return o.finalize(ctx, r, idx, since, now)
}

func (o *Orchestrator) incremental(ctx context.Context, r *run) error {
	now := r.startedAt
	lastSync := r.store.LastSyncAt.UTC()
	from := analytics.StartOfDay(lastSync)

	r.stage = stageCatalog
	if err := o.ingestCatalog(ctx, r, catalog.Window{Since: lastSync, Until: now}); err != nil {
		return err
	}

	r.stage = stageOrders
	if err := o.ingestOrders(ctx, r, orders.Window{Since: from, Until: now}); err != nil {
		return err
	}

	// Histories of every customer ordering in the window are rebuilt from the
	// stored orders, so orders committed by an earlier failed run are merged too.
	r.stage = stageHistory
	idx, err := o.histories.Load(ctx, r.store.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer histories")
	}
	customerIDs, err := o.history.CustomerIDsBetween(ctx, r.store.ID, from, analytics.StartOfDay(now).AddDate(0, 0, 1))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list window customers")
	}
	owned, err := o.history.ListByCustomers(ctx, r.store.ID, customerIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer orders")
	}
	touched := idx.Refresh(owned, customerIDs)
	if err := o.histories.Upsert(ctx, r.store.ID, idx, touched); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert customer histories")
	}

	return o.finalize(ctx, r, idx, from, now)
}

func (o *Orchestrator) ingestCatalog(ctx context.Context, r *run, window catalog.Window) error {
	result, err := o.catalog.Ingest(ctx, r.feed, r.store, window)
	if result != nil {
		r.cursor = result.Cursor
	}
	return err
}

func (o *Orchestrator) ingestOrders(ctx context.Context, r *run, window orders.Window) error {
	result, err := o.orders.Ingest(ctx, r.feed, r.store, window)
	if result == nil {
		return err
	}
	r.cursor = result.Cursor
	r.watermark = result.Watermark
	r.inserted = result.Inserted
	if currencyErr := o.stores.SetCurrencyIfEmpty(ctx, r.store.ID, result.Currency); currencyErr != nil {
		err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeInternal, currencyErr, "store currency"))
	}
	return err
}

func (o *Orchestrator) finalize(ctx context.Context, r *run, idx *customers.Index, from, to time.Time) error {
	r.stage = stageMetrics
	if _, err := o.aggregator.Recompute(ctx, r.store.ID, idx, from, to); err != nil {
		return err
	}
	if missing := idx.Unindexed(); len(missing) > 0 {
		o.logg.Warn(o.logg.WithFields(ctx, map[string]any{
			"customers": len(missing),
			"first":     missing[0],
		}), "orders of customers without history counted as repeat")
	}

	r.stage = stageFinalize
	if err := o.stores.AdvanceLastSync(ctx, r.store.ID, to); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance last sync")
	}
	if o.cache != nil {
		if err := o.cache.Invalidate(ctx, r.store.ID); err != nil {
			o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "metrics cache invalidation failed")
		}
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, r *run, err error) {
	elapsed := o.now().UTC().Sub(r.startedAt)
	o.metrics.Finished()
	o.metrics.AddOrders(r.mode.String(), r.inserted)

	ctx = o.logg.WithFields(ctx, map[string]any{
		"duration_ms": elapsed.Milliseconds(),
		"inserted":    r.inserted,
	})
	if err == nil {
		o.metrics.ObserveRun(r.mode.String(), metrics.OutcomeSuccess, elapsed)
		o.logg.Info(ctx, "sync completed")
		return
	}

	o.metrics.ObserveRun(r.mode.String(), metrics.OutcomeFailure, elapsed)
	fields := map[string]any{"stage": r.stage}
	if r.cursor != "" {
		fields["cursor"] = r.cursor
	}
	if !r.watermark.IsZero() {
		fields["watermark"] = r.watermark.Format(time.RFC3339)
	}
	fields["code"] = string(pkgerrors.CodeOf(err))
	fields["retryable"] = pkgerrors.Retryable(err)
	o.logg.Error(o.logg.WithFields(ctx, fields), "sync failed", err)
}
