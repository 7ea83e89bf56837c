package analytics

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// DashboardMetrics returns every catalog metric for the requested days.
func DashboardMetrics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return rangeHandler(logg, func(ctx context.Context, req rangeRequest) (any, error) {
		return service.GetMetrics(ctx, req.storeID, req.from, req.to)
	})
}

func FinanceMetrics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return rangeHandler(logg, func(ctx context.Context, req rangeRequest) (any, error) {
		return service.FinanceMetrics(ctx, req.storeID, req.from, req.to)
	})
}

func Spotlight(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return rangeHandler(logg, func(ctx context.Context, req rangeRequest) (any, error) {
		return service.Spotlight(ctx, req.storeID, req.from, req.to)
	})
}

type performanceReporter interface {
	Performance(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*catalog.PerformanceReport, error)
}

// ProductPerformance reports per-variant sales and margins for the range.
func ProductPerformance(reporter performanceReporter, logg *logger.Logger) http.HandlerFunc {
	return rangeHandler(logg, func(ctx context.Context, req rangeRequest) (any, error) {
		return reporter.Performance(ctx, req.storeID, req.from, req.to)
	})
}

func rangeHandler(logg *logger.Logger, fetch func(context.Context, rangeRequest) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := parseRangeRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := fetch(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
