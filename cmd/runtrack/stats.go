// ABOUTME: Stats command summarizing run history
// ABOUTME: Prints totals, overall pace, and personal bests

package main

import (
	"fmt"

	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/ui"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded runs",
	Long: `Summarize recorded runs: total distance and time, overall pace,
longest and fastest run.

Examples:
  runtrack stats
  runtrack stats --since 1m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := storage.ListRecords(store)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		since, _ := cmd.Flags().GetString("since")
		if since != "" {
			sinceTime, err := storage.ParseSince(since, now())
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			records = storage.FilterSince(records, sinceTime)
		}

		fmt.Print(ui.FormatSummary(storage.Summarize(records)))
		if len(records) == 0 {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("since", "", "only runs newer than this (e.g., 7d, 1w, 1m)")

	rootCmd.AddCommand(statsCmd)
}
