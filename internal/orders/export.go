package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

const exportDateLayout = "02 Jan 2006"

// ExportedOrder is one row of the orders export.
type ExportedOrder struct {
	Date              string             `json:"date"`
	OrderID           string             `json:"order_id"`
	OrderNumber       int64              `json:"order_number"`
	Customer          string             `json:"customer"`
	Source            string             `json:"source"`
	FulfillmentStatus string             `json:"fulfillment_status"`
	Paid              decimal.Decimal    `json:"paid"`
	ShippingPaid      decimal.Decimal    `json:"shipping_paid"`
	ShippingCountry   string             `json:"shipping_country"`
	ShippingRegion    string             `json:"shipping_region"`
	Discount          decimal.Decimal    `json:"discount"`
	Cogs              decimal.Decimal    `json:"cogs"`
	GrossProfit       decimal.Decimal    `json:"gross_profit"`
	Products          []ExportedLineItem `json:"products"`
}

type ExportedLineItem struct {
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	Paid              decimal.Decimal `json:"paid"`
	Discount          decimal.Decimal `json:"discount"`
	ProductCost       decimal.Decimal `json:"product_cost"`
	PreTaxGrossProfit decimal.Decimal `json:"pre_tax_gross_profit"`
	PreTaxGrossMargin string          `json:"pre_tax_gross_margin"`
}

type rangeLister interface {
	ListByStoreBetween(ctx context.Context, storeID uuid.UUID, from, until time.Time) ([]models.Order, error)
}

// Exporter renders stored orders for download.
type Exporter struct {
	orders rangeLister
}

func NewExporter(orders rangeLister) *Exporter {
	return &Exporter{orders: orders}
}

// Export returns the orders placed between the start of from and the end of to, both UTC days.
func (e *Exporter) Export(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]ExportedOrder, error) {
	start := startOfDay(from)
	until := startOfDay(to).AddDate(0, 0, 1)
	rows, err := e.orders.ListByStoreBetween(ctx, storeID, start, until)
	if err != nil {
		return nil, err
	}

	out := make([]ExportedOrder, 0, len(rows))
	for _, order := range rows {
		out = append(out, exportOrder(order))
	}
	return out, nil
}

func exportOrder(order models.Order) ExportedOrder {
	items := make([]ExportedLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, ExportedLineItem{
			Name:              item.Name,
			Quantity:          item.Quantity,
			Paid:              item.Paid.Round(2),
			Discount:          item.Discount.Round(2),
			ProductCost:       item.ProductCost.Round(2),
			PreTaxGrossProfit: item.PreTaxGrossProfit.Round(2),
			PreTaxGrossMargin: item.PreTaxGrossMargin.String() + "%",
		})
	}
	return ExportedOrder{
		Date:              order.OrderedAt.UTC().Format(exportDateLayout),
		OrderID:           order.ExternalID,
		OrderNumber:       order.OrderNumber,
		Customer:          order.CustomerName,
		Source:            order.Source,
		FulfillmentStatus: order.FulfillmentStatus,
		Paid:              order.Paid.Round(2),
		ShippingPaid:      order.ShippingPaid.Round(2),
		ShippingCountry:   order.ShippingCountry,
		ShippingRegion:    order.ShippingRegion,
		Discount:          order.Discount.Round(2),
		Cogs:              order.Cogs.Round(2),
		GrossProfit:       order.GrossProfit.Round(2),
		Products:          items,
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
