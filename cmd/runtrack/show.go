// ABOUTME: Show command displaying one recorded run
// ABOUTME: Accepts a run key or its history index

package main

import (
	"errors"
	"fmt"

	"github.com/harper/runtrack/internal/geo"
	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <key|index>",
	Short: "Show a recorded run",
	Long: `Show a recorded run by key or by its number in 'runtrack history'.

Examples:
  runtrack show 1
  runtrack show run:20250305T073000.000000000Z --route`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, rec, err := resolveRun(args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("run '%s' not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Print(ui.FormatRunDetail(key, rec))

		withRoute, _ := cmd.Flags().GetBool("route")
		if withRoute {
			fmt.Printf("  route:    %s through the samples\n", ui.FormatDistance(geo.PathLength(rec.Route)))
			for i, p := range rec.Route {
				fmt.Printf("    %3d %s\n", i+1, p)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("route", false, "print every route sample")

	rootCmd.AddCommand(showCmd)
}
