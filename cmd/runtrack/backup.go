// ABOUTME: Backup command for exporting run history to YAML
// ABOUTME: Creates portable backup files for data migration

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harper/runtrack/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a YAML backup of all runs",
	Long: `Create a YAML backup file containing every recorded run.

The backup file can be used to:
- Migrate data between machines
- Restore after data loss
- Import into a fresh store

Examples:
  runtrack backup --output runs.yaml
  runtrack backup -o ~/backups/runs-$(date +%Y%m%d).yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := storage.ExportToYAML(store)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		keys, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to count runs: %w", err)
		}

		if output == "" {
			// Default filename with timestamp
			output = fmt.Sprintf("runs-%s.yaml", now().Format("20060102-150405"))
		}

		if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for backup files
			return fmt.Errorf("failed to write backup: %w", err)
		}

		color.Green("Backup created: %s", output)
		fmt.Printf("  %d runs\n", len(keys))

		return nil
	},
}

func init() {
	backupCmd.Flags().StringP("output", "o", "", "output file (default: runs-YYYYMMDD-HHMMSS.yaml)")

	rootCmd.AddCommand(backupCmd)
}
