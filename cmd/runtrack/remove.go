// ABOUTME: Runtrack remove command
// ABOUTME: Permanently deletes a recorded run

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/runtrack/internal/storage"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <key|index>",
	Aliases: []string{"rm"},
	Short:   "Delete a recorded run",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, rec, err := resolveRun(args[0])
		if errors.Is(err, storage.ErrNotFound) {
			color.Yellow("No run '%s' found, nothing removed", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			fmt.Printf("Delete the run from %s? This cannot be undone. [y/N] ",
				rec.Date.Local().Format("Jan 2 2006, 3:04 PM"))
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := store.Delete(key); err != nil {
			return fmt.Errorf("failed to remove run: %w", err)
		}

		color.Green("✓ Removed %s", key)
		return nil
	},
}

func init() {
	removeCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(removeCmd)
}
