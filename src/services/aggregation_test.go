package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/insightfactory/backend/src/models"
)

func testSales() []models.Sale {
	soldAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	return []models.Sale{
		{SKU: "OREO_CLASSIC", Units: 10, Price: 1.99, Branch: "Miraflores", SoldAt: soldAt},
		{SKU: "OREO_DOUBLE", Units: 5, Price: 2.49, Branch: "San Isidro", SoldAt: soldAt},
		{SKU: "OREO_CLASSIC", Units: 15, Price: 1.99, Branch: "Miraflores", SoldAt: soldAt},
	}
}

func TestAggregateAllBranches(t *testing.T) {
	agg := Aggregate(testSales(), "")

	assert.Equal(t, 30, agg.TotalUnits)
	assert.InDelta(t, 62.20, agg.TotalRevenue, 0.001)
	assert.Equal(t, "OREO_CLASSIC", agg.TopSKU)
	assert.Equal(t, "Miraflores", agg.TopBranch)
}

func TestAggregateWithBranchFilter(t *testing.T) {
	soldAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	sales := []models.Sale{
		{SKU: "OREO_CLASSIC", Units: 10, Price: 1.99, Branch: "Miraflores", SoldAt: soldAt},
		{SKU: "OREO_DOUBLE", Units: 5, Price: 2.49, Branch: "San Isidro", SoldAt: soldAt},
		{SKU: "OREO_THINS", Units: 8, Price: 2.19, Branch: "Miraflores", SoldAt: soldAt},
		{SKU: "OREO_CLASSIC", Units: 12, Price: 1.99, Branch: "San Isidro", SoldAt: soldAt},
	}

	agg := Aggregate(sales, "Miraflores")

	assert.Equal(t, 18, agg.TotalUnits)
	assert.InDelta(t, 37.42, agg.TotalRevenue, 0.001)
	assert.Equal(t, "OREO_CLASSIC", agg.TopSKU)
	assert.Equal(t, "Miraflores", agg.TopBranch)
}

func TestAggregateBranchFilterIsCaseSensitive(t *testing.T) {
	agg := Aggregate(testSales(), "miraflores")

	assert.Equal(t, 0, agg.TotalUnits)
	assert.Equal(t, models.NoDataSentinel, agg.TopSKU)
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregate(nil, "")

	assert.Equal(t, 0, agg.TotalUnits)
	assert.Equal(t, 0.0, agg.TotalRevenue)
	assert.Equal(t, models.NoDataSentinel, agg.TopSKU)
	assert.Equal(t, models.NoDataSentinel, agg.TopBranch)
}

func TestAggregateFilterToEmpty(t *testing.T) {
	agg := Aggregate(testSales(), "Barranco")

	assert.Equal(t, models.SalesAggregates{
		TotalUnits:   0,
		TotalRevenue: 0,
		TopSKU:       models.NoDataSentinel,
		TopBranch:    models.NoDataSentinel,
	}, agg)
}

func TestAggregateTieBreakIsLexicographic(t *testing.T) {
	soldAt := time.Now()
	sales := []models.Sale{
		{SKU: "ZETA", Units: 10, Price: 1.0, Branch: "West", SoldAt: soldAt},
		{SKU: "ALPHA", Units: 10, Price: 1.0, Branch: "East", SoldAt: soldAt},
	}

	// Both SKUs and both branches are tied at 10 units; the smallest key wins.
	agg := Aggregate(sales, "")
	assert.Equal(t, "ALPHA", agg.TopSKU)
	assert.Equal(t, "East", agg.TopBranch)
}

func TestAggregateIsDeterministic(t *testing.T) {
	sales := testSales()
	first := Aggregate(sales, "")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Aggregate(sales, ""))
	}
}

func TestAggregateUnitsInvariant(t *testing.T) {
	sales := testSales()
	agg := Aggregate(sales, "")

	sum := 0
	for _, s := range sales {
		sum += s.Units
	}
	require.Equal(t, sum, agg.TotalUnits)
}
