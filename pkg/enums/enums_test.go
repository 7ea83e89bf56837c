package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricCatalogIsComplete(t *testing.T) {
	catalog := MetricCatalog()
	require.Len(t, catalog, 19)

	seen := map[MetricType]bool{}
	for _, def := range catalog {
		assert.False(t, seen[def.Type], "duplicate metric %q", def.Type)
		seen[def.Type] = true
		assert.NotEmpty(t, def.Description, "metric %q missing description", def.Type)
	}
	assert.Equal(t, MetricTotalSales, catalog[0].Type)
	assert.Equal(t, MetricPurchaseRevenue, catalog[len(catalog)-1].Type)
}

func TestMetricCatalogReturnsCopy(t *testing.T) {
	catalog := MetricCatalog()
	catalog[0].Type = "mutated"
	assert.Equal(t, MetricTotalSales, MetricCatalog()[0].Type)
}

func TestParseMetricType(t *testing.T) {
	got, err := ParseMetricType("Gross Profit %")
	require.NoError(t, err)
	assert.Equal(t, MetricGrossProfitPercent, got)
	assert.Equal(t, MetricUnitPercent, got.Unit())

	_, err = ParseMetricType("gross profit")
	assert.Error(t, err)
}

func TestMetricUnits(t *testing.T) {
	assert.Equal(t, MetricUnitMoney, MetricAOV.Unit())
	assert.Equal(t, MetricUnitCount, MetricOrders.Unit())
	assert.Equal(t, MetricUnitCount, MetricType("unknown").Unit())
}

func TestParseSyncMode(t *testing.T) {
	mode, err := ParseSyncMode(" Incremental ")
	require.NoError(t, err)
	assert.Equal(t, SyncModeIncremental, mode)

	_, err = ParseSyncMode("partial")
	assert.Error(t, err)
	assert.False(t, SyncMode("partial").IsValid())
}
