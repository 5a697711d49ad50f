// ABOUTME: Export command for generating GeoJSON, markdown, and YAML output
// ABOUTME: Supports time filtering and route or start-point geometry

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harper/runtrack/internal/geojson"
	"github.com/harper/runtrack/internal/storage"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export [key|index]",
	Aliases: []string{"e"},
	Short:   "Export runs in various formats",
	Long: `Export runs as GeoJSON, Markdown, or YAML.

Examples:
  # Export every route as GeoJSON LineStrings
  runtrack export --format geojson

  # Export one run
  runtrack export 1 --format geojson

  # Export as markdown table
  runtrack export --format markdown

  # Export with time filter (relative)
  runtrack export --since 7d

  # Export with time filter (absolute)
  runtrack export --from 2025-03-01 --to 2025-03-31

  # Export run start points only
  runtrack export --geometry points

  # Save to file
  runtrack export --output runs.geojson`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "geojson" && format != "markdown" && format != "yaml" {
			return fmt.Errorf("unsupported format: %s (use 'geojson', 'markdown', or 'yaml')", format)
		}

		geometry, _ := cmd.Flags().GetString("geometry")
		if geometry != "points" && geometry != "line" {
			return fmt.Errorf("unsupported geometry: %s (use 'points' or 'line')", geometry)
		}

		// Parse time filters
		since, _ := cmd.Flags().GetString("since")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		var sinceTime, fromTime, toTime time.Time
		var err error

		if since != "" {
			sinceTime, err = storage.ParseSince(since, now())
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
		}
		if from != "" {
			fromTime, err = storage.ParseDate(from)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
		}
		if to != "" {
			toTime, err = storage.ParseDateEnd(to)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
		}

		var records []storage.KeyedRecord
		if len(args) == 1 {
			key, rec, err := resolveRun(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("run '%s' not found", args[0])
			}
			if err != nil {
				return err
			}
			records = []storage.KeyedRecord{{Key: key, Record: rec}}
		} else {
			records, err = storage.ListRecords(store)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
		}
		records = storage.FilterRange(storage.FilterSince(records, sinceTime), fromTime, toTime)

		output, _ := cmd.Flags().GetString("output")

		// Handle different output formats
		switch format {
		case "markdown":
			return writeExport(storage.ExportToMarkdown(records), output, "markdown")
		case "yaml":
			return exportYAML(records, output)
		default:
			return exportGeoJSON(records, geometry, output)
		}
	},
}

func exportGeoJSON(records []storage.KeyedRecord, geometry string, output string) error {
	var fc *geojson.FeatureCollection
	if geometry == "points" {
		fc = geojson.ToStartPointsFeatureCollection(records)
	} else {
		fc = geojson.ToRouteFeatureCollection(records)
	}
	if len(fc.Features) == 0 {
		return fmt.Errorf("no runs with a route found")
	}

	jsonBytes, err := fc.ToJSONIndent()
	if err != nil {
		return fmt.Errorf("failed to generate GeoJSON: %w", err)
	}
	return writeExport(append(jsonBytes, '\n'), output, fmt.Sprintf("%d runs", len(fc.Features)))
}

func exportYAML(records []storage.KeyedRecord, output string) error {
	data, err := storage.MarshalBackup(records)
	if err != nil {
		return fmt.Errorf("failed to generate YAML: %w", err)
	}
	return writeExport(data, output, "YAML")
}

// writeExport writes data to output, or stdout when output is empty.
func writeExport(data []byte, output, what string) error {
	if output == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", what, output)
	return nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "geojson", "output format (geojson, markdown, yaml)")
	exportCmd.Flags().StringP("geometry", "g", "line", "geometry type (line, points)")
	exportCmd.Flags().String("since", "", "relative time filter (e.g., 24h, 7d, 1w)")
	exportCmd.Flags().String("from", "", "start date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().String("to", "", "end date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
