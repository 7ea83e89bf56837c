package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

type dayWriter interface {
	ReplaceDays(ctx context.Context, storeID uuid.UUID, days []DayMetrics) error
}

// Aggregator recomputes stored metrics for a span of days. Full sync and resync
// use the same path and differ only in the span they pass.
type Aggregator struct {
	orders  orderReader
	metrics dayWriter
}

func NewAggregator(orders orderReader, metrics dayWriter) (*Aggregator, error) {
	if orders == nil || metrics == nil {
		return nil, fmt.Errorf("aggregator dependencies required")
	}
	return &Aggregator{orders: orders, metrics: metrics}, nil
}

// Recompute rebuilds every day from from through to and returns how many days were written.
func (a *Aggregator) Recompute(ctx context.Context, storeID uuid.UUID, classifier Classifier, from, to time.Time) (int, error) {
	days := Days(from, to)
	if len(days) == 0 {
		return 0, nil
	}
	orders, err := a.orders.ListByStoreBetween(ctx, storeID, days[0], days[len(days)-1].AddDate(0, 0, 1))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders for metrics")
	}
	computed := Compute(orders, classifier, days)
	if err := a.metrics.ReplaceDays(ctx, storeID, computed); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write metrics")
	}
	return len(computed), nil
}
