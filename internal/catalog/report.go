package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Bounds is a high/low pair across variants or products.
type Bounds struct {
	High decimal.Decimal `json:"high"`
	Low  decimal.Decimal `json:"low"`
}

type VariantPerformance struct {
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	Stock                int             `json:"stock"`
	Price                decimal.Decimal `json:"price"`
	Sales                int64           `json:"sales"`
	Revenue              decimal.Decimal `json:"revenue"`
	ProductCost          decimal.Decimal `json:"product_cost"`
	ProductMargin        decimal.Decimal `json:"product_margin"`
	ProductMarginPercent decimal.Decimal `json:"product_margin_percent"`
}

type ProductPerformance struct {
	Name                 string               `json:"name"`
	Stock                int                  `json:"stock"`
	Price                Bounds               `json:"price"`
	Sales                int64                `json:"sales"`
	ProductCost          Bounds               `json:"product_cost"`
	Revenue              decimal.Decimal      `json:"revenue"`
	ProductMargin        decimal.Decimal      `json:"product_margin"`
	ProductMarginPercent decimal.Decimal      `json:"product_margin_percent"`
	Variants             []VariantPerformance `json:"variants"`
}

type PerformanceSummary struct {
	Stock                int             `json:"stock"`
	Price                Bounds          `json:"price"`
	Sales                int64           `json:"sales"`
	ProductCost          Bounds          `json:"product_cost"`
	Revenue              decimal.Decimal `json:"revenue"`
	ProductMargin        decimal.Decimal `json:"product_margin"`
	ProductMarginPercent decimal.Decimal `json:"product_margin_percent"`
}

type PerformanceReport struct {
	Products []ProductPerformance `json:"products"`
	Summary  PerformanceSummary   `json:"summary"`
}

type reportSource interface {
	ListWithVariants(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	SalesByVariant(ctx context.Context, storeID uuid.UUID, from, until time.Time) (map[string]VariantSales, error)
}

// Reporter builds the product performance report. Cost figures use the
// configured margin ratio, not real unit costs.
type Reporter struct {
	source reportSource
	margin decimal.Decimal
}

func NewReporter(source reportSource, margin decimal.Decimal) *Reporter {
	return &Reporter{source: source, margin: margin}
}

// Performance reports sales per product for orders placed between the start of
// from and the end of to. Products without sales in the range are left out.
func (r *Reporter) Performance(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*PerformanceReport, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date")
	}
	products, err := r.source.ListWithVariants(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog")
	}
	sales, err := r.source.SalesByVariant(ctx, storeID, startOfDay(from), startOfDay(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant sales")
	}

	marginPercent := r.margin.Mul(hundred).Round(2)
	report := &PerformanceReport{Products: []ProductPerformance{}}
	summary := &report.Summary
	summary.Revenue = decimal.Zero
	summary.ProductMargin = decimal.Zero
	summary.ProductMarginPercent = marginPercent

	for _, product := range products {
		if len(product.Variants) == 0 {
			continue
		}
		row := ProductPerformance{
			Name:                 product.Title,
			ProductMarginPercent: marginPercent,
			Revenue:              decimal.Zero,
			Variants:             make([]VariantPerformance, 0, len(product.Variants)),
		}
		for i, variant := range product.Variants {
			sold := sales[variant.ExternalID]
			revenue := sold.Revenue.Round(2)
			margin := revenue.Mul(r.margin).Round(2)
			cost := revenue.Sub(margin)

			row.Variants = append(row.Variants, VariantPerformance{
				Name:                 variant.Title,
				SKU:                  variant.SKU,
				Stock:                variant.InventoryQuantity,
				Price:                variant.Price,
				Sales:                sold.Units,
				Revenue:              revenue,
				ProductCost:          cost,
				ProductMargin:        margin,
				ProductMarginPercent: marginPercent,
			})
			row.Stock += variant.InventoryQuantity
			row.Sales += sold.Units
			row.Revenue = row.Revenue.Add(revenue)
			if i == 0 {
				row.Price = Bounds{High: variant.Price, Low: variant.Price}
				row.ProductCost = Bounds{High: cost, Low: cost}
				continue
			}
			row.Price = widen(row.Price, variant.Price)
			row.ProductCost = widen(row.ProductCost, cost)
		}
		if row.Sales == 0 {
			continue
		}
		row.ProductMargin = row.Revenue.Mul(r.margin).Round(2)

		if len(report.Products) == 0 {
			summary.Price = row.Price
			summary.ProductCost = row.ProductCost
		} else {
			summary.Price = widen(widen(summary.Price, row.Price.High), row.Price.Low)
			summary.ProductCost = widen(widen(summary.ProductCost, row.ProductCost.High), row.ProductCost.Low)
		}
		summary.Stock += row.Stock
		summary.Sales += row.Sales
		summary.Revenue = summary.Revenue.Add(row.Revenue)
		summary.ProductMargin = summary.ProductMargin.Add(row.ProductMargin)
		report.Products = append(report.Products, row)
	}
	return report, nil
}

func widen(b Bounds, v decimal.Decimal) Bounds {
	if v.GreaterThan(b.High) {
		b.High = v
	}
	if v.LessThan(b.Low) {
		b.Low = v
	}
	return b
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
