package cmd

import (
	"github.com/spf13/cobra"
)

// treeOutput is the top-level JSON structure for list output.
type treeOutput struct {
	Books []*TreeNode `json:"books"`
}

// NewListCmd creates the list command with the given runner.
func NewListCmd(runner ListRunner) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:          "list [book-selector]",
		Short:        "Display book outlines as trees",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			var sel string
			if len(args) == 1 {
				sel = args[0]
			}
			roots, err := runner.Outline(cmd.Context(), sel)
			if err != nil {
				return err
			}
			if depth > 0 {
				for _, r := range roots {
					prune(r, depth)
				}
			}
			if roots == nil {
				roots = []*TreeNode{}
			}

			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), &treeOutput{Books: roots})
			} else {
				renderTreeText(cmd.OutOrStdout(), roots)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum display depth below the book root (0 = unlimited)")

	return cmd
}

// prune drops every node deeper than maxDepth.
func prune(n *TreeNode, maxDepth int) {
	if n.Depth >= maxDepth {
		n.Children = []*TreeNode{}
		return
	}
	for _, c := range n.Children {
		prune(c, maxDepth)
	}
}
