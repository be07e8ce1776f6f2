package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addPlacementFlags registers the destination flags shared by add and move.
func addPlacementFlags(cmd *cobra.Command, p *Placement) {
	cmd.Flags().StringVar(&p.Book, "book", "", "Book to place the page in (selector of its root page)")
	cmd.Flags().StringVar(&p.Parent, "parent", "", "Page to place the page under")
	cmd.Flags().StringVar(&p.Before, "before", "", "Sibling to place the page before")
	cmd.Flags().StringVar(&p.After, "after", "", "Sibling to place the page after")
	cmd.Flags().BoolVar(&p.First, "first", false, "Place the page ahead of its siblings")
	cmd.MarkFlagsMutuallyExclusive("before", "after", "first")
}

// NewAddCmd creates the add command with the given runner.
func NewAddCmd(runner AddRunner) *cobra.Command {
	var (
		body string
		p    Placement
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a page and add it to a book",
		Long: `Create a page and add it to a book.

Without --parent the page goes to the top level of the book. --before and
--after place it next to a sibling and imply that sibling's book and parent.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			result, err := runner.Add(cmd.Context(), args[0], body, p)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), result)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to book %s at depth %d\n",
					result.Title, result.ID, result.Entry.BookID, result.Entry.Depth)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "Page body (HTML)")
	addPlacementFlags(cmd, &p)

	return cmd
}
