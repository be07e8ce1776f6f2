package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/domain"
)

// RemoveResult holds the outcome of a remove operation.
type RemoveResult struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

// NewRemoveCmd creates the remove command. The page file itself is kept.
func NewRemoveCmd(runner RemoveRunner) *cobra.Command {
	var cascade, promote bool

	cmd := &cobra.Command{
		Use:          "remove <selector>",
		Short:        "Remove a page from its book outline",
		Long:         "Remove a page from its book outline. The page itself is kept. Without flags only pages with no children can be removed.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			mode := domain.RemoveLeaf
			switch {
			case cascade:
				mode = domain.RemoveCascade
			case promote:
				mode = domain.RemovePromote
			}

			id, err := runner.Remove(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), RemoveResult{ID: id, Mode: mode.String()})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from its book\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also remove every page below it")
	cmd.Flags().BoolVar(&promote, "promote", false, "Move its children up into its place")
	cmd.MarkFlagsMutuallyExclusive("cascade", "promote")

	return cmd
}
