// ABOUTME: GeoJSON generation utilities
// ABOUTME: Converts run routes to GeoJSON FeatureCollections

package geojson

import (
	"encoding/json"
	"time"

	"github.com/harper/runtrack/internal/models"
	"github.com/harper/runtrack/internal/storage"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PointCoordinates represents [longitude, latitude] for a Point.
type PointCoordinates [2]float64

// LineCoordinates represents [[lng, lat], [lng, lat], ...] for a LineString.
type LineCoordinates []PointCoordinates

func point(p models.GeoPoint) PointCoordinates {
	return PointCoordinates{p.Longitude, p.Latitude}
}

// runProperties describes a run in feature properties, rounded for display.
func runProperties(key string, rec *models.RunRecord) map[string]interface{} {
	return map[string]interface{}{
		"key":              key,
		"date":             rec.Date.Format(time.RFC3339),
		"distance_meters":  models.Round2(rec.DistanceMeters),
		"duration_seconds": rec.DurationSeconds,
		"average_speed":    models.Round2(rec.AverageSpeed),
		"point_count":      len(rec.Route),
	}
}

// ToRouteFeatureCollection converts runs to one feature each.
// A route with two or more samples becomes a LineString, a single sample a Point.
// Runs without samples are skipped.
func ToRouteFeatureCollection(records []storage.KeyedRecord) *FeatureCollection {
	features := make([]Feature, 0, len(records))

	for _, r := range records {
		route := r.Record.Route
		var geom Geometry
		switch len(route) {
		case 0:
			continue
		case 1:
			geom = Geometry{Type: "Point", Coordinates: point(route[0])}
		default:
			coords := make(LineCoordinates, len(route))
			for i, p := range route {
				coords[i] = point(p)
			}
			geom = Geometry{Type: "LineString", Coordinates: coords}
		}

		features = append(features, Feature{
			Type:       "Feature",
			Geometry:   geom,
			Properties: runProperties(r.Key, r.Record),
		})
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// ToStartPointsFeatureCollection converts runs to a Point at each run's first sample.
func ToStartPointsFeatureCollection(records []storage.KeyedRecord) *FeatureCollection {
	features := make([]Feature, 0, len(records))

	for _, r := range records {
		if len(r.Record.Route) == 0 {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: point(r.Record.Route[0]),
			},
			Properties: runProperties(r.Key, r.Record),
		})
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
