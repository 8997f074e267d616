// internal/workers/pricing/compare-dish-prices/models.go
package comparedishprices

import "dishprice-workers/internal/models"

// Input holds the process variables read by the task. Empty values fall back
// to the configured default city and dish.
type Input struct {
	City string `json:"city"`
	Dish string `json:"dish"`
}

// Output is written back as flat process variables.
type Output struct {
	*models.ComparisonResult
}
