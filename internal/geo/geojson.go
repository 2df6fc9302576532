package geo

import "encoding/json"

// Feature is one GeoJSON Feature: a Point geometry carrying a tag and
// optional attached data as properties.
type Feature struct {
	Type       string          `json:"type"`
	Geometry   geometry        `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type featureProperties struct {
	Tag  string          `json:"tag"`
	Hash string          `json:"hash"`
	Data json.RawMessage `json:"data,omitempty"`
}

// FeatureCollection is the top-level GeoJSON object GEOJSON returns.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToGeoJSON renders every point in idx as a GeoJSON FeatureCollection.
// Coordinates are [x, y], i.e. [lat, lng] — not the GeoJSON-standard
// [lon, lat] order, matching GeoPoint's own axis convention.
func (idx *Index) ToGeoJSON() FeatureCollection {
	points := idx.Points()
	features := make([]Feature, len(points))
	for i, p := range points {
		features[i] = Feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: []float64{p.Lat, p.Lng},
			},
			Properties: featureProperties{
				Tag:  p.Tag,
				Hash: p.Hash,
				Data: p.Data,
			},
		}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
