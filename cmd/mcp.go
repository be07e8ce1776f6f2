package cmd

import (
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the mcp command, which serves the MCP tools on stdio
// until the input closes.
func NewMCPCmd(runner MCPRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve navigation, outline and export tools over MCP on stdio",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			return runner.ServeMCP(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
