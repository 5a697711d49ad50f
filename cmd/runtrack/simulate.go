// ABOUTME: Simulate command that records a synthetic straight-line run
// ABOUTME: Useful for trying the tracker without a GPS track file

package main

import (
	"fmt"
	"time"

	"github.com/harper/runtrack/internal/location"
	"github.com/harper/runtrack/internal/models"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Record a simulated run",
	Long: `Record a synthetic run heading due east from a starting point.

One fix is generated per interval, each --step-meters further along. Combine
with --realtime to watch the session tick, or --dry-run to keep history clean.

Examples:
  runtrack simulate
  runtrack simulate --steps 600 --step-meters 2.8
  runtrack simulate --lat 40.7128 --lng -74.0060 --realtime --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		steps, _ := cmd.Flags().GetInt("steps")
		stepMeters, _ := cmd.Flags().GetFloat64("step-meters")
		interval, _ := cmd.Flags().GetDuration("interval")

		if err := models.ValidateCoordinates(lat, lng); err != nil {
			return err
		}
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		if stepMeters < 0 {
			return fmt.Errorf("--step-meters must not be negative")
		}
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive")
		}

		start := models.GeoPoint{Latitude: lat, Longitude: lng}
		fixes := location.Simulate(start, steps, stepMeters, now(), interval)
		return recordFrom(cmd, location.NewSliceSource(fixes), "simulation")
	},
}

func init() {
	simulateCmd.Flags().Float64("lat", 41.8781, "starting latitude")
	simulateCmd.Flags().Float64("lng", -87.6298, "starting longitude")
	simulateCmd.Flags().Int("steps", 300, "number of fixes to generate")
	simulateCmd.Flags().Float64("step-meters", 3, "meters between consecutive fixes")
	simulateCmd.Flags().Duration("interval", time.Second, "time between consecutive fixes")
	addRecordingFlags(simulateCmd)

	rootCmd.AddCommand(simulateCmd)
}
