// ABOUTME: Import command for restoring runs from YAML backup
// ABOUTME: Supports importing backup files created by the backup command

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/runtrack/internal/storage"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import runs from a YAML backup",
	Long: `Import runs from a YAML backup file.

This restores data from a backup created with 'runtrack backup'.
Runs already stored under the same key are replaced; other runs are kept.

Examples:
  runtrack import runs.yaml
  runtrack import ~/backups/runs-20250314.yaml --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename) //nolint:gosec // path is user-supplied on purpose
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			fmt.Printf("Import runs from '%s'? [y/N] ", filename)
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Canceled.")
				return nil
			}
		}

		n, err := storage.ImportFromYAML(store, data)
		if err != nil {
			return fmt.Errorf("failed to import after %d runs: %w", n, err)
		}

		keys, _ := store.List()

		color.Green("Import complete")
		fmt.Printf("  %d runs imported, %d runs in store\n", n, len(keys))

		return nil
	},
}

func init() {
	importCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(importCmd)
}
