package enums

import "fmt"

// MetricType names a row of the daily metric fact table. The string values are
// read by dashboard clients and must not change.
type MetricType string

const (
	MetricTotalSales          MetricType = "Total Sales"
	MetricTaxes               MetricType = "Taxes"
	MetricNetSales            MetricType = "Net Sales"
	MetricCOGS                MetricType = "COGS"
	MetricCOGSPercent         MetricType = "COGS %"
	MetricGrossProfit         MetricType = "Gross Profit"
	MetricGrossProfitPercent  MetricType = "Gross Profit %"
	MetricOrders              MetricType = "Orders"
	MetricNewCustomerOrders   MetricType = "New Customer Orders"
	MetricNewCustomers        MetricType = "New Customers"
	MetricRepeatCustomers     MetricType = "Repeat Customers"
	MetricNewCustomerSales    MetricType = "New Customer Sales"
	MetricRepeatCustomerSales MetricType = "Repeat Customer Sales"
	MetricNewCustomerAOV      MetricType = "New Customer AOV"
	MetricRepeatCustomerAOV   MetricType = "Repeat Customer AOV"
	MetricAOV                 MetricType = "AOV"
	MetricAverageItems        MetricType = "Average No Of Items"
	MetricTotalCustomers      MetricType = "Total Customers"
	MetricPurchaseRevenue     MetricType = "Purchase Revenue"
)

// MetricUnit decides how a metric is rendered.
type MetricUnit string

const (
	MetricUnitMoney   MetricUnit = "money"
	MetricUnitPercent MetricUnit = "percent"
	MetricUnitCount   MetricUnit = "count"
)

// MetricDefinition describes one entry of the metric catalog.
type MetricDefinition struct {
	Type        MetricType
	Description string
	Unit        MetricUnit
}

var metricCatalog = []MetricDefinition{
	{MetricTotalSales, "Equates to gross sales - discounts - returns + taxes + shipping charges.", MetricUnitMoney},
	{MetricTaxes, "The total amount of taxes charged on orders during this period.", MetricUnitMoney},
	{MetricNetSales, "Equates to gross sales + shipping - taxes - discounts - returns.", MetricUnitMoney},
	{MetricCOGS, "Equates to Product Costs + Shipping Costs + Fulfillment Costs + Packing Fees + Transaction Fees", MetricUnitMoney},
	{MetricCOGSPercent, "Cost of Goods (COGS) as % of Net Sales", MetricUnitPercent},
	{MetricGrossProfit, "Calculated by subtracting Cost of Goods (COGS) from Net Sales.", MetricUnitMoney},
	{MetricGrossProfitPercent, "Gross Profit as a % of Net Sales", MetricUnitPercent},
	{MetricOrders, "Number of orders", MetricUnitCount},
	{MetricNewCustomerOrders, "Number of orders from new customers", MetricUnitCount},
	{MetricNewCustomers, "The number of first-time buyers during a specific period.", MetricUnitCount},
	{MetricRepeatCustomers, "Customers who have made more than one purchase in their order history.", MetricUnitCount},
	{MetricNewCustomerSales, "Net Sales generated from new customers during this time period.", MetricUnitMoney},
	{MetricRepeatCustomerSales, "Net Sales generated from existing customers during this time period.", MetricUnitMoney},
	{MetricNewCustomerAOV, "Average Value of Each Order from a New Customer. Total New Customer Sales / Number of New Customer Orders.", MetricUnitMoney},
	{MetricRepeatCustomerAOV, "Average Value of Each Order from a Repeat Customer. Total Repeat Customer Sales / Number of Repeat Customer Orders.", MetricUnitMoney},
	{MetricAOV, "Average Value of Each Order Total Sales / Orders", MetricUnitMoney},
	{MetricAverageItems, "The average number of items per order. | Total Items Ordered / Total Orders.", MetricUnitCount},
	{MetricTotalCustomers, "The total number of unique customers who have made a purchase.", MetricUnitCount},
	{MetricPurchaseRevenue, "Income generated from the sale of goods, calculated by multiplying the number of units sold by the price per unit", MetricUnitMoney},
}

var metricIndex = func() map[MetricType]MetricDefinition {
	index := make(map[MetricType]MetricDefinition, len(metricCatalog))
	for _, def := range metricCatalog {
		index[def.Type] = def
	}
	return index
}()

// MetricCatalog returns the metric definitions in dashboard display order.
func MetricCatalog() []MetricDefinition {
	out := make([]MetricDefinition, len(metricCatalog))
	copy(out, metricCatalog)
	return out
}

// String implements fmt.Stringer.
func (m MetricType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MetricType.
func (m MetricType) IsValid() bool {
	_, ok := metricIndex[m]
	return ok
}

// Definition returns the catalog entry for the metric.
func (m MetricType) Definition() (MetricDefinition, bool) {
	def, ok := metricIndex[m]
	return def, ok
}

// Description returns the dashboard description, empty for unknown metrics.
func (m MetricType) Description() string {
	return metricIndex[m].Description
}

// Unit returns the rendering unit, defaulting to count.
func (m MetricType) Unit() MetricUnit {
	if def, ok := metricIndex[m]; ok {
		return def.Unit
	}
	return MetricUnitCount
}

// ParseMetricType converts raw input into a MetricType.
func ParseMetricType(value string) (MetricType, error) {
	candidate := MetricType(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid metric type %q", value)
	}
	return candidate, nil
}
