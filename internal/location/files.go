// ABOUTME: Track file readers for replaying recorded fixes
// ABOUTME: Parses GPX track points and JSON-lines fix fixtures

package location

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/runtrack/internal/models"
)

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// gpxTimeLayouts covers the timestamp variants exported by common devices.
var gpxTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

func parseGPXTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range gpxTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ReadGPX parses every track point of every track segment, in document order.
func ReadGPX(r io.Reader) ([]models.Fix, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	var fixes []models.Fix
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				t, err := parseGPXTime(pt.Time)
				if err != nil {
					return nil, fmt.Errorf("parse gpx point %d: %w", len(fixes), err)
				}
				fixes = append(fixes, models.NewFix(pt.Lat, pt.Lon, t))
			}
		}
	}
	return fixes, nil
}

// jsonFix is one line of a JSON-lines fixture.
type jsonFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Time      time.Time `json:"time"`
}

// ReadJSONLines parses one {"latitude","longitude","time"} object per line.
// Blank lines and lines starting with # are skipped.
func ReadJSONLines(r io.Reader) ([]models.Fix, error) {
	var fixes []models.Fix
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var jf jsonFix
		if err := json.Unmarshal(line, &jf); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNo, err)
		}
		fixes = append(fixes, models.NewFix(jf.Latitude, jf.Longitude, jf.Time))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fixes: %w", err)
	}
	return fixes, nil
}

// Format names a track file encoding.
type Format string

const (
	FormatGPX       Format = "gpx"
	FormatJSONLines Format = "jsonl"
)

// DetectFormat guesses a track format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return FormatGPX, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	default:
		return "", fmt.Errorf("cannot detect track format for %q (use --format gpx or jsonl)", path)
	}
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) ([]models.Fix, error) {
	switch format {
	case FormatGPX:
		return ReadGPX(r)
	case FormatJSONLines:
		return ReadJSONLines(r)
	default:
		return nil, fmt.Errorf("unsupported track format: %q", format)
	}
}

// OpenFile loads a track file into a replayable source.
// An empty format is detected from the file extension.
func OpenFile(path string, format Format) (*SliceSource, error) {
	if format == "" {
		var err error
		format, err = DetectFormat(path)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path) //nolint:gosec // path is user-supplied on purpose
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	defer func() { _ = f.Close() }()

	fixes, err := Read(f, format)
	if err != nil {
		return nil, err
	}
	return NewSliceSource(fixes), nil
}
