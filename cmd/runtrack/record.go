// ABOUTME: Record command that turns a GPS track into a saved run
// ABOUTME: Replays fixes through a session and keeps unsaved runs on store failure

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/harper/runtrack/internal/config"
	"github.com/harper/runtrack/internal/location"
	"github.com/harper/runtrack/internal/tracker"
	"github.com/harper/runtrack/internal/ui"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:     "record <track>",
	Aliases: []string{"r"},
	Short:   "Record a run from a GPS track",
	Long: `Record a run by replaying a GPX file or JSON-lines fixture.

Elapsed time follows the fix timestamps, so a recorded track is processed
instantly. Use --realtime to replay it at wall-clock speed with live updates;
press Ctrl-C to finish early and keep what was recorded so far.

Examples:
  runtrack record morning.gpx
  runtrack record fixes.jsonl --min-distance 5
  runtrack record track.xml --format gpx --dry-run
  runtrack record morning.gpx --realtime`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringP("format", "f", "", "track format (gpx, jsonl); detected from the extension by default")
	addRecordingFlags(recordCmd)

	rootCmd.AddCommand(recordCmd)
}

// addRecordingFlags registers the flags shared by every command that records a run.
func addRecordingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("realtime", false, "replay at wall-clock speed with live updates")
	cmd.Flags().Float64("min-distance", 0, "minimum meters between route samples (default from config)")
	cmd.Flags().Bool("dry-run", false, "compute the run without saving it")
}

func runRecord(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, _ := cmd.Flags().GetString("format")

	src, err := location.OpenFile(path, location.Format(strings.ToLower(format)))
	if err != nil {
		return err
	}
	if src.Len() == 0 {
		return fmt.Errorf("track %s contains no fixes", path)
	}
	return recordFrom(cmd, src, path)
}

// recordFrom replays src through a new session and saves the result.
func recordFrom(cmd *cobra.Command, src *location.SliceSource, origin string) error {
	realtime, _ := cmd.Flags().GetBool("realtime")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	threshold := cfg.GetMinSampleMeters()
	if cmd.Flags().Changed("min-distance") {
		threshold, _ = cmd.Flags().GetFloat64("min-distance")
		if err := tracker.ValidateMinSampleDistance(threshold); err != nil {
			return fmt.Errorf("invalid --min-distance: %w", err)
		}
	}

	session := tracker.NewSession(
		tracker.WithMinSampleDistance(threshold),
		tracker.WithLogger(logger),
	)
	fmt.Printf("Recording run %s from %s (%d fixes)\n",
		color.CyanString(session.ID().String()[:8]), origin, src.Len())

	var source location.Source = src
	opts := []tracker.RunnerOption{tracker.WithRunnerLogger(logger)}
	if realtime {
		source = location.NewPaced(src)
		opts = append(opts, tracker.WithUpdates(func(s tracker.Snapshot) {
			fmt.Printf("\r%s", ui.FormatSnapshot(s))
		}))
	} else {
		opts = append(opts, tracker.WithFixClock())
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracker.NewRunner(session, source, opts...).Run(ctx); err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	if realtime {
		fmt.Println()
	}

	if dryRun {
		rec, err := session.Record()
		if err != nil {
			return err
		}
		color.Yellow("Dry run, not saved")
		fmt.Print(ui.FormatRunDetail(rec.Key(), rec))
		return nil
	}

	rec, err := session.Save(store)
	if err != nil {
		color.Yellow("⚠ Could not save run: %v", err)
		keepUnsaved(session)
		return fmt.Errorf("failed to save run: %w", err)
	}

	color.Green("✓ Saved run %s", rec.Key())
	fmt.Print(ui.FormatRunDetail(rec.Key(), rec))
	return nil
}

// keepUnsaved retries a failed save against a YAML store under the data
// directory so the run can be migrated into the main store later.
func keepUnsaved(session *tracker.Session) {
	dir := cfg.UnsavedDir()
	fallback, err := config.Open(config.BackendYAML, dir, logger)
	if err != nil {
		logger.Error("cannot open unsaved run folder", "dir", dir, "err", err)
		return
	}
	defer func() { _ = fallback.Close() }()

	rec, err := session.Save(fallback)
	if err != nil {
		logger.Error("cannot keep unsaved run", "dir", dir, "err", err)
		return
	}
	color.Yellow("  Run kept as %s in %s", rec.Key(), dir)
	fmt.Printf("  Recover it with: runtrack migrate --from yaml --from-dir %s --to %s --force\n",
		dir, cfg.GetBackend())
}
