// internal/models/menu.go
package models

import "strings"

// Menu maps lower-cased dish names to prices in major currency units.
// Keys keep the position of their first appearance; a repeated name
// overwrites the price only.
type Menu struct {
	names  []string
	prices map[string]float64
}

// NewMenu returns an empty menu.
func NewMenu() Menu {
	return Menu{prices: make(map[string]float64)}
}

// Set records a dish price under its normalized name. Blank names are ignored.
func (m *Menu) Set(name string, price float64) {
	key := strings.ToLower(name)
	if key == "" {
		return
	}
	if m.prices == nil {
		m.prices = make(map[string]float64)
	}
	if _, ok := m.prices[key]; !ok {
		m.names = append(m.names, key)
	}
	m.prices[key] = price
}

// Price looks up an already-normalized dish name.
func (m Menu) Price(name string) (float64, bool) {
	p, ok := m.prices[name]
	return p, ok
}

// Names returns the dish names in first-seen order.
func (m Menu) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m Menu) Len() int {
	return len(m.names)
}

func (m Menu) IsEmpty() bool {
	return len(m.names) == 0
}
