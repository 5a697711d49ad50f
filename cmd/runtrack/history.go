// ABOUTME: History command listing recorded runs
// ABOUTME: Shows runs newest first with distance, time, and pace

package main

import (
	"fmt"
	"time"

	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/ui"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls", "list"},
	Short:   "List recorded runs, newest first",
	Long: `List recorded runs, newest first.

The number in front of each run can be passed to show, remove, and export.

Examples:
  runtrack history
  runtrack history --since 7d
  runtrack ls --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := storage.ListRecords(store)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet. Use 'runtrack record' to add one.")
			return nil
		}

		var sinceTime time.Time
		if since != "" {
			sinceTime, err = storage.ParseSince(since, now())
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
		}

		shown := 0
		for i, r := range records {
			if r.Record.Date.Before(sinceTime) {
				continue
			}
			if limit > 0 && shown >= limit {
				break
			}
			// Index stays the position in the full history so it can be reused.
			fmt.Println(ui.FormatRun(i+1, r.Record))
			shown++
		}
		if shown == 0 {
			fmt.Println("No runs in that time range.")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("since", "", "only runs newer than this (e.g., 24h, 7d, 1w, 1m)")
	historyCmd.Flags().IntP("limit", "n", 0, "maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
