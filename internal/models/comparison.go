// internal/models/comparison.go
package models

import (
	"fmt"
	"strings"
)

// Deal is a restaurant name paired with the price found for the requested dish.
type Deal struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PricedRestaurants holds, for one source, the matched dish price per
// restaurant display name. Names keep the order of their first insertion,
// which is the source's search ranking.
type PricedRestaurants struct {
	names  []string
	prices map[string]float64
}

// NewPricedRestaurants builds a mapping from deals in ranking order.
func NewPricedRestaurants(deals ...Deal) PricedRestaurants {
	var p PricedRestaurants
	for _, d := range deals {
		p.Add(d.Name, d.Price)
	}
	return p
}

// Add records a price for a restaurant. A later price for the same name wins.
func (p *PricedRestaurants) Add(name string, price float64) {
	if p.prices == nil {
		p.prices = make(map[string]float64)
	}
	if _, ok := p.prices[name]; !ok {
		p.names = append(p.names, name)
	}
	p.prices[name] = price
}

func (p PricedRestaurants) Price(name string) (float64, bool) {
	v, ok := p.prices[name]
	return v, ok
}

func (p PricedRestaurants) Has(name string) bool {
	_, ok := p.prices[name]
	return ok
}

func (p PricedRestaurants) Len() int {
	return len(p.names)
}

func (p PricedRestaurants) IsEmpty() bool {
	return len(p.names) == 0
}

// Names returns restaurant names in ranking order.
func (p PricedRestaurants) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Deals returns (name, price) pairs in ranking order.
func (p PricedRestaurants) Deals() []Deal {
	out := make([]Deal, 0, len(p.names))
	for _, n := range p.names {
		out = append(out, Deal{Name: n, Price: p.prices[n]})
	}
	return out
}

// Side identifies which source offers the lower price.
type Side string

const (
	SideA   Side = "A"
	SideB   Side = "B"
	SideTie Side = "Tie"
)

// ComparisonRow pairs the prices of a restaurant listed by both sources.
type ComparisonRow struct {
	Restaurant string  `json:"restaurant"`
	PriceA     float64 `json:"priceA"`
	PriceB     float64 `json:"priceB"`
	Cheaper    Side    `json:"cheaper"`
	Savings    float64 `json:"savings"`
}

// FallbackNote carries the cheapest deals of each source when no restaurant
// is listed by both.
type FallbackNote struct {
	Dish      string `json:"dish,omitempty"`
	SourceA   string `json:"sourceA,omitempty"`
	SourceB   string `json:"sourceB,omitempty"`
	CheapestA []Deal `json:"cheapestA"`
	CheapestB []Deal `json:"cheapestB"`
}

// String renders the note for display, e.g.
// No common restaurants for "Paneer". Swiggy deals: [(X, 100)]. Zomato deals: [].
func (n FallbackNote) String() string {
	nameA, nameB := n.SourceA, n.SourceB
	if nameA == "" {
		nameA = "Source A"
	}
	if nameB == "" {
		nameB = "Source B"
	}
	return fmt.Sprintf("No common restaurants for %q. %s deals: %s. %s deals: %s.",
		n.Dish, nameA, formatDeals(n.CheapestA), nameB, formatDeals(n.CheapestB))
}

func formatDeals(deals []Deal) string {
	parts := make([]string, 0, len(deals))
	for _, d := range deals {
		parts = append(parts, fmt.Sprintf("(%s, %g)", d.Name, d.Price))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Reconciliation is either a list of rows or, when no name overlaps, a note.
type Reconciliation struct {
	Rows []ComparisonRow `json:"rows,omitempty"`
	Note *FallbackNote   `json:"note,omitempty"`
}
