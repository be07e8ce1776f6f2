package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBooksCmd creates the books command with the given runner.
func NewBooksCmd(runner BooksRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "books",
		Short:        "List books in creation order",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			books, err := runner.Books(cmd.Context())
			if err != nil {
				return err
			}
			if books == nil {
				books = []BookInfo{}
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), books)
				return nil
			}
			for _, b := range books {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%d pages)\n", b.ID, b.Title, b.Pages)
			}
			return nil
		},
	}
}
