// Package geo resolves city names to coordinates from a static table.
package geo

import (
	"sort"
	"strings"

	"dishprice-workers/internal/models"
)

// DefaultCity is used for blank or unknown city names.
const DefaultCity = "mumbai"

var cities = map[string]models.Coordinate{
	"mumbai":    {Lat: 19.0760, Lng: 72.8777},
	"delhi":     {Lat: 28.6139, Lng: 77.2090},
	"bangalore": {Lat: 12.9716, Lng: 77.5946},
	"hyderabad": {Lat: 17.3850, Lng: 78.4867},
	"chennai":   {Lat: 13.0827, Lng: 80.2707},
	"kolkata":   {Lat: 22.5726, Lng: 88.3639},
	"pune":      {Lat: 18.5204, Lng: 73.8567},
}

var aliases = map[string]string{
	"bengaluru": "bangalore",
	"bombay":    "mumbai",
	"new delhi": "delhi",
	"calcutta":  "kolkata",
	"madras":    "chennai",
}

// Normalize returns the table key for city, or DefaultCity when unknown.
func Normalize(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if _, ok := cities[key]; ok {
		return key
	}
	return DefaultCity
}

// Lookup returns the coordinates of city. Unknown cities silently resolve to
// Mumbai.
func Lookup(city string) models.Coordinate {
	return cities[Normalize(city)]
}

// CityAt reverses Lookup for coordinates taken from the table, falling back to
// DefaultCity.
func CityAt(c models.Coordinate) string {
	for name, coord := range cities {
		if coord == c {
			return name
		}
	}
	return DefaultCity
}

// Cities lists the known city keys in alphabetical order.
func Cities() []string {
	out := make([]string, 0, len(cities))
	for name := range cities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
