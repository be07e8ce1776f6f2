package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/config"
	"github.com/eykd/booktree-go/internal/fs"
	"github.com/eykd/booktree-go/internal/store"
)

// NewInitCmd creates the init command. The getwd function returns the working
// directory where the project will be initialized.
func NewInitCmd(getwd func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:          "init",
		Short:        "Initialize a new booktree project in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}

			existed, err := fs.InitProject(cwd)
			if err != nil {
				return err
			}
			if _, err := config.WriteDefault(cwd); err != nil {
				return err
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.PagesDir, 0o755); err != nil {
				return &ContextError{Op: "init", Path: cfg.PagesDir, Err: err}
			}
			st, err := store.Open(cfg.Database)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return err
			}

			if existed {
				fmt.Fprintln(cmd.OutOrStdout(), "Booktree project already initialized")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized booktree project")
			return nil
		},
	}
}
