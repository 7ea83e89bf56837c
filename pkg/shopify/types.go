package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the subset of the Admin API order resource the pipeline consumes.
type Order struct {
	ID                    int64           `json:"id"`
	OrderNumber           int64           `json:"order_number"`
	Name                  string          `json:"name"`
	CreatedAt             time.Time       `json:"created_at"`
	Currency              string          `json:"currency"`
	TotalPrice            decimal.Decimal `json:"total_price"`
	TotalTax              decimal.Decimal `json:"total_tax"`
	TotalDiscounts        decimal.Decimal `json:"total_discounts"`
	SourceName            string          `json:"source_name"`
	FulfillmentStatus     *string         `json:"fulfillment_status"`
	Customer              *Customer       `json:"customer"`
	ShippingAddress       *Address        `json:"shipping_address"`
	TotalShippingPriceSet *PriceSet       `json:"total_shipping_price_set"`
	CurrentTotalPriceSet  *PriceSet       `json:"current_total_price_set"`
	LineItems             []LineItem      `json:"line_items"`
}

type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Address struct {
	Country      string `json:"country"`
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code"`
}

type PriceSet struct {
	ShopMoney Money `json:"shop_money"`
}

type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

type LineItem struct {
	ID            int64           `json:"id"`
	ProductID     *int64          `json:"product_id"`
	VariantID     *int64          `json:"variant_id"`
	Title         string          `json:"title"`
	VariantTitle  *string         `json:"variant_title"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// ShopCurrency returns the presentment-independent currency of the order.
func (o Order) ShopCurrency() string {
	if o.CurrentTotalPriceSet != nil && o.CurrentTotalPriceSet.ShopMoney.CurrencyCode != "" {
		return o.CurrentTotalPriceSet.ShopMoney.CurrencyCode
	}
	return o.Currency
}

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
	Variants    []Variant `json:"variants"`
}

type Variant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

// OrdersQuery filters an orders listing. When PageInfo is set the time bounds are
// ignored, the cursor already encodes them.
type OrdersQuery struct {
	CreatedAtMin time.Time
	CreatedAtMax time.Time
	Limit        int
	PageInfo     string
}

type OrdersPage struct {
	Orders       []Order
	NextPageInfo string
}

type ProductsQuery struct {
	UpdatedAtMin time.Time
	UpdatedAtMax time.Time
	Limit        int
	PageInfo     string
}

type ProductsPage struct {
	Products     []Product
	NextPageInfo string
}
