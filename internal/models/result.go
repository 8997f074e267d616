// internal/models/result.go
package models

// ChartData holds parallel series for the comparison chart. It only covers
// comparison rows; names are truncated for display.
type ChartData struct {
	Restaurants []string  `json:"restaurants"`
	PricesA     []float64 `json:"pricesA"`
	PricesB     []float64 `json:"pricesB"`
}

// ComparisonResult is the outcome of one comparison request. Exactly one of
// Rows and Note is set.
type ComparisonResult struct {
	RequestID  string          `json:"requestId"`
	City       string          `json:"city"`
	Dish       string          `json:"dish"`
	Coordinate Coordinate      `json:"coordinate"`
	SourceA    string          `json:"sourceA"`
	SourceB    string          `json:"sourceB"`
	Rows       []ComparisonRow `json:"rows,omitempty"`
	Note       *FallbackNote   `json:"note,omitempty"`
	NoteText   string          `json:"noteText,omitempty"`
	Advisory   string          `json:"advisory,omitempty"`

	// SourceBUnavailable is set when source B returned no restaurants and no prices.
	SourceBUnavailable bool      `json:"sourceBUnavailable"`
	Chart              ChartData `json:"chart"`

	CandidatesA int `json:"candidatesA"`
	CandidatesB int `json:"candidatesB"`
	PricedA     int `json:"pricedA"`
	PricedB     int `json:"pricedB"`
}

// HasRows reports whether at least one restaurant was priced by both sources.
func (r *ComparisonResult) HasRows() bool {
	return len(r.Rows) > 0
}
