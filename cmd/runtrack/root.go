// ABOUTME: Root Cobra command and global flags
// ABOUTME: Sets up CLI structure, logging, config, and the configured run store

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/runtrack/internal/config"
	"github.com/harper/runtrack/internal/models"
	"github.com/harper/runtrack/internal/storage"
	"github.com/spf13/cobra"
)

var (
	store   storage.RunStore
	cfg     = &config.Config{}
	logger  = newLogger(false)
	verbose bool

	// now is the clock used for relative time filters.
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "runtrack",
	Short: "Record runs and keep a run history",
	Long: `
 ┬─┐┬ ┬┌┐┌┌┬┐┬─┐┌─┐┌─┐┬┌─
 ├┬┘│ ││││ │ ├┬┘├─┤│  ├┴┐
 ┴└─└─┘┘└┘ ┴ ┴└─┴ ┴└─┘┴ ┴

   Turn GPS tracks into runs: distance, time, and route

Examples:
  runtrack record morning.gpx
  runtrack history
  runtrack show 1
  runtrack stats --since 1m
  runtrack export --format geojson --output runs.geojson`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		store, err = cfg.OpenStorage(logger)
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		logger.Debug("storage opened", "backend", cfg.GetBackend(), "data_dir", cfg.GetDataDir())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			err := store.Close()
			store = nil
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the stderr logger. Verbose lowers the level to debug.
func newLogger(verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "runtrack",
		ReportTimestamp: true,
		Level:           log.WarnLevel,
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// commandContext returns the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveRun finds a run by key, or by 1-based index into the newest-first history.
func resolveRun(ref string) (string, *models.RunRecord, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		records, err := storage.ListRecords(store)
		if err != nil {
			return "", nil, err
		}
		if n < 1 || n > len(records) {
			return "", nil, fmt.Errorf("run %d not found (%d runs recorded)", n, len(records))
		}
		r := records[n-1]
		return r.Key, r.Record, nil
	}

	rec, err := store.Get(ref)
	if err != nil {
		return "", nil, err
	}
	return ref, rec, nil
}
