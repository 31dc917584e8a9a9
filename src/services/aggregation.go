package services

import (
	"github.com/username/insightfactory/backend/src/models"
)

// Aggregate computes summary statistics over a set of sales already filtered
// to the requested date range. When branch is non-empty, sales from other
// branches are discarded first (exact, case-sensitive match).
//
// The function is pure and never fails: an empty input produces zero totals
// and the "N/A" sentinel for top SKU and top branch. When two groups are tied
// on unit sum, the lexicographically smallest key wins, so repeated calls on
// the same input always return the same result.
func Aggregate(sales []models.Sale, branch string) models.SalesAggregates {
	if branch != "" {
		filtered := make([]models.Sale, 0, len(sales))
		for _, sale := range sales {
			if sale.Branch == branch {
				filtered = append(filtered, sale)
			}
		}
		sales = filtered
	}

	if len(sales) == 0 {
		return models.SalesAggregates{
			TotalUnits:   0,
			TotalRevenue: 0,
			TopSKU:       models.NoDataSentinel,
			TopBranch:    models.NoDataSentinel,
		}
	}

	totalUnits := 0
	totalRevenue := 0.0
	unitsBySKU := make(map[string]int)
	unitsByBranch := make(map[string]int)

	for _, sale := range sales {
		totalUnits += sale.Units
		totalRevenue += float64(sale.Units) * sale.Price
		unitsBySKU[sale.SKU] += sale.Units
		unitsByBranch[sale.Branch] += sale.Units
	}

	return models.SalesAggregates{
		TotalUnits:   totalUnits,
		TotalRevenue: totalRevenue,
		TopSKU:       topKey(unitsBySKU),
		TopBranch:    topKey(unitsByBranch),
	}
}

// topKey returns the key with the highest value; ties resolve to the
// lexicographically smallest key.
func topKey(units map[string]int) string {
	best := ""
	bestUnits := -1
	for key, u := range units {
		if u > bestUnits || (u == bestUnits && key < best) {
			best = key
			bestUnits = u
		}
	}
	if best == "" {
		return models.NoDataSentinel
	}
	return best
}
