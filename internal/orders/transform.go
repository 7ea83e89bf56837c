package orders

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

const (
	unknownCustomer      = "Unknown"
	defaultFulfillment   = "Unfulfilled"
	unknownShippingPlace = "N/A"
)

var hundred = decimal.NewFromInt(100)

// Ratios are the placeholder cost assumptions applied at ingestion.
type Ratios struct {
	Cogs   decimal.Decimal
	Margin decimal.Decimal
}

// DefaultRatios mirrors the configured defaults.
func DefaultRatios() Ratios {
	return Ratios{Cogs: decimal.RequireFromString("0.34"), Margin: decimal.RequireFromString("0.66")}
}

// RatiosFromConfig reads the ratios from the sync settings.
func RatiosFromConfig(cfg config.SyncConfig) Ratios {
	return Ratios{Cogs: cfg.CogsRatio, Margin: cfg.MarginRatio}
}

// Transform maps a raw platform order into the stored shape, computing the
// derived cost fields from the order's own amounts.
func Transform(raw shopify.Order, ratios Ratios, storeID uuid.UUID) models.Order {
	paid := raw.TotalPrice.Round(2)
	tax := raw.TotalTax.Round(2)
	cogs := paid.Sub(tax).Mul(ratios.Cogs).Round(2)

	order := models.Order{
		StoreID:           storeID,
		ExternalID:        strconv.FormatInt(raw.ID, 10),
		OrderNumber:       raw.OrderNumber,
		OrderedAt:         raw.CreatedAt.UTC(),
		CustomerName:      unknownCustomer,
		Source:            raw.SourceName,
		FulfillmentStatus: defaultFulfillment,
		ShippingCountry:   unknownShippingPlace,
		ShippingRegion:    unknownShippingPlace,
		Currency:          raw.ShopCurrency(),
		Paid:              paid,
		Tax:               tax,
		Discount:          raw.TotalDiscounts.Round(2),
		Cogs:              cogs,
		GrossProfit:       paid.Sub(cogs),
	}

	if raw.Customer != nil {
		order.CustomerID = strconv.FormatInt(raw.Customer.ID, 10)
		if name := strings.TrimSpace(raw.Customer.FirstName + " " + raw.Customer.LastName); name != "" {
			order.CustomerName = name
		}
	}
	if raw.FulfillmentStatus != nil && strings.TrimSpace(*raw.FulfillmentStatus) != "" {
		order.FulfillmentStatus = *raw.FulfillmentStatus
	}
	if addr := raw.ShippingAddress; addr != nil {
		if addr.Country != "" {
			order.ShippingCountry = addr.Country
		}
		switch {
		case addr.ProvinceCode != "":
			order.ShippingRegion = addr.ProvinceCode
		case addr.Province != "":
			order.ShippingRegion = addr.Province
		}
	}
	if raw.TotalShippingPriceSet != nil {
		order.ShippingPaid = raw.TotalShippingPriceSet.ShopMoney.Amount.Round(2)
	}

	order.LineItems = make([]models.LineItem, 0, len(raw.LineItems))
	for _, item := range raw.LineItems {
		order.LineItems = append(order.LineItems, transformLineItem(item, ratios, storeID))
	}
	return order
}

func transformLineItem(raw shopify.LineItem, ratios Ratios, storeID uuid.UUID) models.LineItem {
	paid := raw.Price.Mul(decimal.NewFromInt(int64(raw.Quantity))).Round(2)
	profit := paid.Mul(ratios.Margin).Round(2)

	name := raw.Title
	if raw.VariantTitle != nil && strings.TrimSpace(*raw.VariantTitle) != "" {
		name = *raw.VariantTitle
	}

	item := models.LineItem{
		StoreID:           storeID,
		ExternalID:        strconv.FormatInt(raw.ID, 10),
		Name:              name,
		Quantity:          raw.Quantity,
		Paid:              paid,
		Discount:          raw.TotalDiscount.Round(2),
		ProductCost:       paid.Sub(profit),
		PreTaxGrossProfit: profit,
		PreTaxGrossMargin: ratios.Margin.Mul(hundred).Round(2),
	}
	if raw.ProductID != nil {
		item.ProductID = strconv.FormatInt(*raw.ProductID, 10)
	}
	if raw.VariantID != nil {
		item.VariantID = strconv.FormatInt(*raw.VariantID, 10)
	}
	return item
}
