package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMoveCmd creates the move command with the given runner.
func NewMoveCmd(runner MoveRunner) *cobra.Command {
	var p Placement

	cmd := &cobra.Command{
		Use:   "move <selector>",
		Short: "Move a page and everything below it",
		Long: `Move a page and everything below it.

--book alone moves the page to the top level of another book. --first
without another destination reorders the page among its current siblings.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			e, err := runner.Move(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), e)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to book %s at depth %d\n", e.ItemID, e.BookID, e.Depth)
			}
			return nil
		},
	}

	addPlacementFlags(cmd, &p)

	return cmd
}
