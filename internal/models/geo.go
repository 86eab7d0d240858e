// internal/models/geo.go
package models

// Coordinates is a WGS-84 longitude/latitude pair.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Region is the coarse administrative triple used as the feature cache key.
type Region struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// POI is one point of interest returned by the geo data provider.
type POI struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	// Distance from the query point in meters.
	Distance float64 `json:"distance"`
}

// GeocodeResult is the resolved location for a free-text address.
type GeocodeResult struct {
	Coordinates Coordinates `json:"coordinates"`
	Region      Region      `json:"region"`
	Formatted   string      `json:"formattedAddress"`
}
