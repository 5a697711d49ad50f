// ABOUTME: Core data models for fixes, routes, and completed runs
// ABOUTME: Provides record construction, storage keys, and coordinate validation

package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RecordKeyPrefix namespaces run records in key-value backends.
const RecordKeyPrefix = "run:"

// recordKeyLayout sorts lexically in chronological order.
const recordKeyLayout = "20060102T150405.000000000Z"

// ValidateCoordinates checks if latitude and longitude are within valid ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinates cannot be NaN")
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinates cannot be infinite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate reports whether the point has usable coordinates.
func (p GeoPoint) Validate() error {
	return ValidateCoordinates(p.Latitude, p.Longitude)
}

// String formats the point for terminal output.
func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.5f, %.5f)", p.Latitude, p.Longitude)
}

// Fix is a single reported position with its capture time.
type Fix struct {
	Point GeoPoint
	Time  time.Time
}

// NewFix creates a fix captured at t.
func NewFix(lat, lng float64, t time.Time) Fix {
	return Fix{Point: GeoPoint{Latitude: lat, Longitude: lng}, Time: t}
}

// RunRecord is the persisted summary of one completed run.
// AverageSpeed is fixed when the record is built and never recomputed.
type RunRecord struct {
	Date            time.Time  `json:"date" yaml:"date"`
	DistanceMeters  float64    `json:"distanceMeters" yaml:"distanceMeters"`
	DurationSeconds int64      `json:"durationSeconds" yaml:"durationSeconds"`
	Route           []GeoPoint `json:"route" yaml:"route"`
	AverageSpeed    float64    `json:"averageSpeed" yaml:"averageSpeed"`
}

// NewRunRecord builds a record dated at date. A zero duration yields an
// average speed of 0 rather than NaN or Inf.
func NewRunRecord(date time.Time, distanceMeters float64, durationSeconds int64, route []GeoPoint) *RunRecord {
	r := make([]GeoPoint, len(route))
	copy(r, route)
	return &RunRecord{
		Date:            date.UTC(),
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
		Route:           r,
		AverageSpeed:    AverageSpeed(distanceMeters, durationSeconds),
	}
}

// AverageSpeed returns meters per second, or 0 when no time has elapsed.
func AverageSpeed(distanceMeters float64, durationSeconds int64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return distanceMeters / float64(durationSeconds)
}

// Key returns the storage key derived from the record's date.
func (r *RunRecord) Key() string {
	return RecordKey(r.Date)
}

// RecordKey derives a storage key from a save timestamp.
func RecordKey(t time.Time) string {
	return RecordKeyPrefix + t.UTC().Format(recordKeyLayout)
}

// ParseRecordKey recovers the save timestamp from a key built by RecordKey.
func ParseRecordKey(key string) (time.Time, error) {
	if !strings.HasPrefix(key, RecordKeyPrefix) {
		return time.Time{}, fmt.Errorf("invalid run key %q: missing %q prefix", key, RecordKeyPrefix)
	}
	t, err := time.Parse(recordKeyLayout, strings.TrimPrefix(key, RecordKeyPrefix))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run key %q: %w", key, err)
	}
	return t, nil
}

// Round2 rounds to two decimal places. Only used when values are read for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatClock renders seconds as mm:ss, or h:mm:ss past an hour. Negative input is 0.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
