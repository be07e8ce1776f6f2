package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command, which starts a book.
func NewNewCmd(runner NewBookRunner) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:          "new <title>",
		Short:        "Create a page as the root of a new book",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			result, err := runner.NewBook(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), result)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Created book %s (%s)\n", result.Title, result.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "Page body (HTML)")

	return cmd
}
