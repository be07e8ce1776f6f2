package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command with the given runner.
func NewExportCmd(runner ExportRunner) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:          "export <format> <selector>",
		Short:        "Export a page and every page below it as one document",
		Long:         "Export a page and every page below it as one printer-friendly document. Formats: html, markdown.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			doc, err := runner.Export(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return &ContextError{Op: "export", Path: output, Err: err}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a file instead of stdout")

	return cmd
}
