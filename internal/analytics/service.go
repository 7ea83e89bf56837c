package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

const (
	dashboardLabelLayout = "2 Jan"
	financeLabelLayout   = "01-02-2006"
	cacheDateLayout      = "2006-01-02"
	maxRangeDays         = 366
)

var financeMetrics = []enums.MetricType{
	enums.MetricTotalSales,
	enums.MetricCOGS,
	enums.MetricGrossProfit,
	enums.MetricGrossProfitPercent,
}

var financeNames = map[enums.MetricType]string{
	enums.MetricGrossProfit:        "Net Profit",
	enums.MetricGrossProfitPercent: "Net Profit %",
}

// MetricSeries is one dashboard chart: a value per label plus the range total.
type MetricSeries struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prefix      string    `json:"prefix"`
	Suffix      string    `json:"suffix"`
	Values      []float64 `json:"values"`
	Total       string    `json:"total"`
}

type MetricsView struct {
	Metrics []MetricSeries `json:"metrics"`
	Labels  []string       `json:"labels"`
}

type NamedAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type NamedQuantity struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// Spotlight highlights the top product and customer of a range.
type Spotlight struct {
	BiggestMover NamedAmount   `json:"biggest_mover"`
	BestSeller   NamedQuantity `json:"best_seller"`
	TopCustomer  NamedAmount   `json:"top_customer"`
}

// Service serves the dashboard reads over the metric fact table.
type Service interface {
	GetMetrics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*MetricsView, error)
	FinanceMetrics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*MetricsView, error)
	Spotlight(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*Spotlight, error)
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type metricReader interface {
	ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time, types ...enums.MetricType) ([]models.Metric, error)
}

type orderReader interface {
	ListByStoreBetween(ctx context.Context, storeID uuid.UUID, from, until time.Time) ([]models.Order, error)
}

type titleResolver interface {
	TitlesByExternalID(ctx context.Context, storeID uuid.UUID, externalIDs []string) (map[string]string, error)
}

type ServiceParams struct {
	Stores   storeReader
	Metrics  metricReader
	Orders   orderReader
	Products titleResolver
	Cache    *Cache
	Logger   *logger.Logger
}

type service struct {
	stores   storeReader
	metrics  metricReader
	orders   orderReader
	products titleResolver
	cache    *Cache
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Stores == nil || params.Metrics == nil || params.Orders == nil || params.Products == nil {
		return nil, fmt.Errorf("analytics service dependencies required")
	}
	return &service{
		stores:   params.Stores,
		metrics:  params.Metrics,
		orders:   params.Orders,
		products: params.Products,
		cache:    params.Cache,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetMetrics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*MetricsView, error) {
	types := make([]enums.MetricType, 0, len(enums.MetricCatalog()))
	for _, def := range enums.MetricCatalog() {
		types = append(types, def.Type)
	}
	return s.view(ctx, "dashboard", storeID, from, to, types, dashboardLabelLayout, nil)
}

func (s *service) FinanceMetrics(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*MetricsView, error) {
	return s.view(ctx, "finance", storeID, from, to, financeMetrics, financeLabelLayout, financeNames)
}

func (s *service) view(ctx context.Context, name string, storeID uuid.UUID, from, to time.Time, types []enums.MetricType, layout string, rename map[enums.MetricType]string) (*MetricsView, error) {
	days, err := validateRange(from, to)
	if err != nil {
		return nil, err
	}
	cacheView := cacheViewKey(name, days)
	var cached MetricsView
	if s.cache.load(ctx, storeID, cacheView, &cached) {
		return &cached, nil
	}

	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.metrics.ListRange(ctx, storeID, days[0], days[len(days)-1], types...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load metrics")
	}

	series := NewSeries(len(days))
	position := make(map[time.Time]int, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		position[d] = i
		labels[i] = d.Format(layout)
	}
	for _, row := range rows {
		i, ok := position[StartOfDay(row.Date)]
		if !ok {
			continue
		}
		values, ok := series[row.MetricType]
		if !ok {
			s.debug(ctx, "unexpected metric type", row.MetricType.String())
			continue
		}
		values[i] = row.Value
	}

	prefix := currencyPrefix(store.Currency)
	view := &MetricsView{Metrics: make([]MetricSeries, 0, len(types)), Labels: labels}
	for _, metric := range types {
		out := MetricSeries{
			Name:        metric.String(),
			Description: metric.Description(),
			Values:      make([]float64, len(days)),
			Total:       Total(metric, series).StringFixed(2),
		}
		if renamed, ok := rename[metric]; ok {
			out.Name = renamed
		}
		switch metric.Unit() {
		case enums.MetricUnitMoney:
			out.Prefix = prefix
		case enums.MetricUnitPercent:
			out.Suffix = "%"
		}
		for i, v := range series[metric] {
			out.Values[i] = v.Round(2).InexactFloat64()
		}
		view.Metrics = append(view.Metrics, out)
	}

	s.cache.save(ctx, storeID, cacheView, view)
	return view, nil
}

func (s *service) Spotlight(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*Spotlight, error) {
	days, err := validateRange(from, to)
	if err != nil {
		return nil, err
	}
	cacheView := cacheViewKey("spotlight", days)
	var cached Spotlight
	if s.cache.load(ctx, storeID, cacheView, &cached) {
		return &cached, nil
	}
	if _, err := s.loadStore(ctx, storeID); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByStoreBetween(ctx, storeID, days[0], days[len(days)-1].AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
	}

	revenue := map[string]decimal.Decimal{}
	quantity := map[string]int64{}
	spend := map[string]decimal.Decimal{}
	names := map[string]string{}
	for _, order := range orders {
		if !order.IsGuest() {
			spend[order.CustomerID] = spend[order.CustomerID].Add(order.Paid)
			names[order.CustomerID] = order.CustomerName
		}
		for _, item := range order.LineItems {
			if item.ProductID == "" {
				continue
			}
			revenue[item.ProductID] = revenue[item.ProductID].Add(item.Paid)
			quantity[item.ProductID] += int64(item.Quantity)
		}
	}

	result := &Spotlight{
		BiggestMover: NamedAmount{Amount: decimal.Zero},
		TopCustomer:  NamedAmount{Amount: decimal.Zero},
	}
	moverID, bestID := "", ""
	for _, id := range sortedKeys(revenue) {
		if revenue[id].GreaterThan(result.BiggestMover.Amount) {
			moverID = id
			result.BiggestMover.Amount = revenue[id]
		}
		if quantity[id] > result.BestSeller.Quantity {
			bestID = id
			result.BestSeller.Quantity = quantity[id]
		}
	}
	for _, id := range sortedKeys(spend) {
		if spend[id].GreaterThan(result.TopCustomer.Amount) {
			result.TopCustomer = NamedAmount{Name: names[id], Amount: spend[id]}
		}
	}

	lookup := []string{}
	for _, id := range []string{moverID, bestID} {
		if id != "" {
			lookup = append(lookup, id)
		}
	}
	titles, err := s.products.TitlesByExternalID(ctx, storeID, lookup)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product titles")
	}
	result.BiggestMover.Name = titles[moverID]
	result.BestSeller.Name = titles[bestID]
	result.BiggestMover.Amount = result.BiggestMover.Amount.Round(2)
	result.TopCustomer.Amount = result.TopCustomer.Amount.Round(2)

	s.cache.save(ctx, storeID, cacheView, result)
	return result, nil
}

func (s *service) loadStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) debug(ctx context.Context, msg, metric string) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithField(ctx, "metric_type", metric), msg)
}

func validateRange(from, to time.Time) ([]time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	if StartOfDay(to).Before(StartOfDay(from)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date")
	}
	days := Days(from, to)
	if len(days) > maxRangeDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("range cannot exceed %d days", maxRangeDays))
	}
	return days, nil
}

func cacheViewKey(name string, days []time.Time) string {
	return fmt.Sprintf("%s:%s:%s", name, days[0].Format(cacheDateLayout), days[len(days)-1].Format(cacheDateLayout))
}

// currencyPrefix keeps the code of values like "USD $".
func currencyPrefix(currency string) string {
	fields := strings.Fields(currency)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
