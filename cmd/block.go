package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/block"
)

// blockOutput is the JSON structure for block output.
type blockOutput struct {
	Shown bool         `json:"shown"`
	Block *block.Block `json:"block,omitempty"`
}

// NewBlockCmd creates the block command with the given runner.
func NewBlockCmd(runner BlockRunner) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:          "block",
		Short:        "Render the book navigation block",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			b, shown, err := runner.Block(cmd.Context(), current)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), blockOutput{Shown: shown, Block: b})
				return nil
			}
			if shown {
				renderBlockText(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Page being viewed")

	return cmd
}

func renderBlockText(w io.Writer, b *block.Block) {
	fmt.Fprintln(w, b.Title)
	var walk func(nodes []*block.Node, level int)
	walk = func(nodes []*block.Node, level int) {
		for _, n := range nodes {
			marker := "-"
			if n.Active {
				marker = "*"
			}
			fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", level), marker, linkText(n.Link))
			walk(n.Children, level+1)
		}
	}
	walk(b.Books, 0)
}
