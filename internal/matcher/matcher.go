// Package matcher finds the price of a dish on a menu by fuzzy name matching.
package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"dishprice-workers/internal/models"
)

// DefaultCutoff is the minimum similarity ratio for a menu entry to count as
// the requested dish.
const DefaultCutoff = 0.6

// Matcher is stateless apart from its cutoff and safe for concurrent use.
type Matcher struct {
	cutoff float64
}

// New returns a matcher with the given cutoff; values outside (0, 1] fall back
// to DefaultCutoff.
func New(cutoff float64) *Matcher {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	return &Matcher{cutoff: cutoff}
}

// FindPrice uses DefaultCutoff.
func FindPrice(menu models.Menu, dish string) (float64, bool) {
	return New(DefaultCutoff).FindPrice(menu, dish)
}

// FindPrice returns the price of the single menu entry most similar to dish,
// or false when nothing scores at least the cutoff. Equal scores keep the
// entry that appears first on the menu.
func (m *Matcher) FindPrice(menu models.Menu, dish string) (float64, bool) {
	name, ok := m.BestMatch(menu.Names(), dish)
	if !ok {
		return 0, false
	}
	return menu.Price(name)
}

// BestMatch returns the candidate closest to dish.
func (m *Matcher) BestMatch(candidates []string, dish string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	sm := difflib.NewMatcher(nil, splitRunes(strings.ToLower(dish)))

	best, bestScore, found := "", 0.0, false
	for _, candidate := range candidates {
		sm.SetSeq1(splitRunes(candidate))
		if sm.RealQuickRatio() < m.cutoff || sm.QuickRatio() < m.cutoff {
			continue
		}
		score := sm.Ratio()
		if score < m.cutoff {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = candidate, score, true
		}
	}
	return best, found
}

// Similarity is the SequenceMatcher ratio between two strings.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
