// internal/models/restaurant.go
package models

// Coordinate is a latitude/longitude pair resolved once per request.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CandidateRestaurant is a search hit before its menu has been priced.
// ID is only meaningful to the source that produced it.
type CandidateRestaurant struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Area *string `json:"area,omitempty"`
}

// AreaOrEmpty returns the locality or "" when the upstream omitted it.
func (c CandidateRestaurant) AreaOrEmpty() string {
	if c.Area == nil {
		return ""
	}
	return *c.Area
}
