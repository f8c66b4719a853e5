// Package oseo talks to the GeoServer OpenSearch for Earth Observation (OSEO)
// REST API, which stores collections and products as GeoJSON features.
package oseo

// Feature is the GeoJSON document the OSEO REST API accepts for both
// collections and products.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   any            `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Polygon is a GeoJSON polygon geometry.
type Polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// NewFeature returns a Feature with an empty property map.
func NewFeature(geometry any) *Feature {
	return &Feature{Type: "Feature", Geometry: geometry, Properties: make(map[string]any)}
}
