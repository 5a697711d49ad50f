// ABOUTME: Migration command for copying runs between storage backends
// ABOUTME: Supports sqlite, badger, and yaml with safety checks on the target directory

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/runtrack/internal/config"
	"github.com/harper/runtrack/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate runs between storage backends",
	Long: `Migrate every run from one backend to another.

By default runs are read from the currently configured backend. Use --from and
--from-dir to read from another store, such as the folder of runs that could
not be saved. Does NOT update the config file; verify the migration was
successful then update config.json manually.

Examples:
  runtrack migrate --to yaml
  runtrack migrate --to badger --data-dir ~/runtrack-badger
  runtrack migrate --from yaml --from-dir ~/.local/share/runtrack/unsaved --to sqlite --force`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	migrateTo      string
	migrateDataDir string
	migrateFrom    string
	migrateFromDir string
	migrateForce   bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite, badger, or yaml)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "target data directory (defaults to current config data_dir)")
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source backend (defaults to current config backend)")
	migrateCmd.Flags().StringVar(&migrateFromDir, "from-dir", "", "source data directory (defaults to current config data_dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "allow writing into a non-empty target directory")
	_ = migrateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(migrateCmd)
}

func validBackend(name string) bool {
	switch name {
	case config.BackendSQLite, config.BackendBadger, config.BackendYAML:
		return true
	}
	return false
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourceBackend := cfg.GetBackend()
	if migrateFrom != "" {
		sourceBackend = strings.ToLower(migrateFrom)
	}
	sourceDataDir := cfg.GetDataDir()
	if migrateFromDir != "" {
		sourceDataDir = config.ExpandPath(migrateFromDir)
	}
	targetBackend := strings.ToLower(migrateTo)

	// Validate backends
	if !validBackend(sourceBackend) {
		return fmt.Errorf("invalid source backend %q: must be \"sqlite\", \"badger\", or \"yaml\"", sourceBackend)
	}
	if !validBackend(targetBackend) {
		return fmt.Errorf("invalid target backend %q: must be \"sqlite\", \"badger\", or \"yaml\"", targetBackend)
	}

	// Determine target data directory
	targetDataDir := cfg.GetDataDir()
	if migrateDataDir != "" {
		targetDataDir = config.ExpandPath(migrateDataDir)
	}
	if targetBackend == sourceBackend && targetDataDir == sourceDataDir {
		return fmt.Errorf("target %s store in %q is the same as the source", targetBackend, targetDataDir)
	}

	// Check if target directory is non-empty
	nonEmpty, err := storage.IsDirNonEmpty(targetDataDir)
	if err != nil {
		return fmt.Errorf("check target directory: %w", err)
	}
	if nonEmpty && !migrateForce {
		return fmt.Errorf("target directory %q is not empty; use --force to overwrite", targetDataDir)
	}

	// Reuse the open store unless another source was requested
	src := store
	if sourceBackend != cfg.GetBackend() || sourceDataDir != cfg.GetDataDir() {
		src, err = config.Open(sourceBackend, sourceDataDir, logger)
		if err != nil {
			return fmt.Errorf("open source storage (%s): %w", sourceBackend, err)
		}
		defer func() {
			if cerr := src.Close(); cerr != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing source storage: %v\n", cerr)
			}
		}()
	}

	// Badger locks its directory, so the configured store must be reused as the target
	dst := store
	if targetBackend != cfg.GetBackend() || targetDataDir != cfg.GetDataDir() {
		dst, err = config.Open(targetBackend, targetDataDir, logger)
		if err != nil {
			return fmt.Errorf("open target storage (%s): %w", targetBackend, err)
		}
		defer func() {
			if cerr := dst.Close(); cerr != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing target storage: %v\n", cerr)
			}
		}()
	}

	// Print plan
	color.Yellow("Migrating runs:")
	fmt.Printf("  Source:  %s (%s)\n", sourceBackend, sourceDataDir)
	fmt.Printf("  Target:  %s (%s)\n", targetBackend, targetDataDir)
	fmt.Println()

	// Run migration
	summary, err := storage.MigrateData(src, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Print summary
	color.Green("Migration complete!")
	fmt.Printf("  Runs: %d\n", summary.Runs)
	fmt.Println()
	if targetBackend == cfg.GetBackend() && targetDataDir == cfg.GetDataDir() {
		return nil
	}
	color.Yellow("Note: config.json was NOT updated. To switch to the new backend, edit:")
	fmt.Printf("  %s\n", config.GetConfigPath())
	fmt.Printf("  Set \"backend\": %q", targetBackend)
	if migrateDataDir != "" {
		fmt.Printf(" and \"data_dir\": %q", migrateDataDir)
	}
	fmt.Println()

	return nil
}
