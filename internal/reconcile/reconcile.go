// Package reconcile pairs the priced restaurants of two sources by display
// name and decides which source is cheaper for each.
package reconcile

import (
	"math"
	"sort"

	"dishprice-workers/internal/models"
)

// NoteSize is the number of cheapest deals listed per source in a fallback note.
const NoteSize = 3

// Engine labels fallback notes with the display names of its two sources.
// It holds no request state.
type Engine struct {
	sourceA string
	sourceB string
}

func New(sourceA, sourceB string) *Engine {
	return &Engine{sourceA: sourceA, sourceB: sourceB}
}

// Reconcile reconciles without source labels or dish.
func Reconcile(a, b models.PricedRestaurants) models.Reconciliation {
	return New("", "").Reconcile("", a, b)
}

// Reconcile returns one row per restaurant priced by both sources, in source
// A's ranking order. When no name is shared it returns a fallback note with
// the cheapest deals of each side instead. It never fails.
func (e *Engine) Reconcile(dish string, a, b models.PricedRestaurants) models.Reconciliation {
	var rows []models.ComparisonRow
	for _, deal := range a.Deals() {
		priceB, ok := b.Price(deal.Name)
		if !ok {
			continue
		}
		rows = append(rows, Compare(deal.Name, deal.Price, priceB))
	}

	if len(rows) > 0 {
		return models.Reconciliation{Rows: rows}
	}

	return models.Reconciliation{
		Note: &models.FallbackNote{
			Dish:      dish,
			SourceA:   e.sourceA,
			SourceB:   e.sourceB,
			CheapestA: Cheapest(a, NoteSize),
			CheapestB: Cheapest(b, NoteSize),
		},
	}
}

// Compare builds a single row. A negative difference means A is cheaper.
// Savings is the absolute difference rounded to two decimal places.
func Compare(restaurant string, priceA, priceB float64) models.ComparisonRow {
	diff := priceA - priceB

	cheaper := models.SideTie
	switch {
	case diff < 0:
		cheaper = models.SideA
	case diff > 0:
		cheaper = models.SideB
	}

	return models.ComparisonRow{
		Restaurant: restaurant,
		PriceA:     priceA,
		PriceB:     priceB,
		Cheaper:    cheaper,
		Savings:    roundMoney(math.Abs(diff)),
	}
}

// Cheapest returns up to n deals ascending by price. Equal prices keep the
// source's ranking order. The result is never nil.
func Cheapest(p models.PricedRestaurants, n int) []models.Deal {
	deals := p.Deals()
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Price < deals[j].Price
	})
	if len(deals) > n {
		deals = deals[:n]
	}
	return deals
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
