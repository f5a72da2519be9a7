package http

import (
	"github.com/samirrijal/drillmap/internal/core/domain"
)

// FeatureCollection is a GeoJSON (RFC 7946) feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds either a Point ([lon, lat]) or a LineString.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func position(p domain.GeoPoint) []float64 {
	return []float64{p.Lon, p.Lat}
}

// NewFeatureCollection emits one collar Point per record with a geographic
// start, plus a trace LineString when the end point is known too.
func NewFeatureCollection(records []domain.TransformedRecord) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, r := range records {
		if r.StartGeo == nil {
			continue
		}

		props := map[string]any{
			"name": r.Name,
			"line": r.Line,
			"kind": "collar",
			"x":    r.StartLocal.X,
			"y":    r.StartLocal.Y,
		}
		if r.StartLocal.Z != nil {
			props["z"] = *r.StartLocal.Z
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			ID:         r.ID,
			Geometry:   Geometry{Type: "Point", Coordinates: position(*r.StartGeo)},
			Properties: props,
		})

		if r.EndGeo == nil {
			continue
		}
		trace := map[string]any{
			"name": r.Name,
			"line": r.Line,
			"kind": "trace",
		}
		if r.TraceLength != nil {
			trace["length"] = *r.TraceLength
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   r.ID + "-trace",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: [][]float64{position(*r.StartGeo), position(*r.EndGeo)},
			},
			Properties: trace,
		})
	}
	return fc
}
