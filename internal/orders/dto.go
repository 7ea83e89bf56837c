package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

// OrderSummary is the list row returned by the orders endpoint.
type OrderSummary struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           string          `json:"order_id"`
	OrderNumber       int64           `json:"order_number"`
	OrderedAt         time.Time       `json:"ordered_at"`
	Customer          string          `json:"customer"`
	Guest             bool            `json:"guest"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	Paid              decimal.Decimal `json:"paid"`
	Tax               decimal.Decimal `json:"tax"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	TotalItems        int             `json:"total_items"`
}

func summaryFromModel(order models.Order) OrderSummary {
	return OrderSummary{
		ID:                order.ID,
		OrderID:           order.ExternalID,
		OrderNumber:       order.OrderNumber,
		OrderedAt:         order.OrderedAt.UTC(),
		Customer:          order.CustomerName,
		Guest:             order.IsGuest(),
		FulfillmentStatus: order.FulfillmentStatus,
		Paid:              order.Paid.Round(2),
		Tax:               order.Tax.Round(2),
		GrossProfit:       order.GrossProfit.Round(2),
		TotalItems:        order.ItemCount(),
	}
}
