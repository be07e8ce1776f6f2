// Package cmd contains the CLI commands for the bk application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerSetter is implemented by services that log.
type loggerSetter interface {
	SetLogger(l *zap.Logger)
}

// newLogger builds the process logger; tests replace it.
var newLogger = func(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// NewRootCmd creates a new root command instance with the global flags.
// This is useful for testing to get a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bk",
		Short:         "Organize pages into hierarchical books",
		Long:          "bk manages book outlines: pages arranged into ordered trees with navigation and printer-friendly export.",
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging to stderr")
	cmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	return cmd
}

// BuildCommandTree creates the root command with every subcommand wired to
// svc. A nil svc makes every command except init fail with ErrNotInProject.
func BuildCommandTree(svc Service, getwd func() (string, error)) *cobra.Command {
	root := NewRootCmd()

	var logger *zap.Logger
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if s, ok := svc.(loggerSetter); ok {
			s.SetLogger(logger)
		}
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	}

	if getwd == nil {
		getwd = os.Getwd
	}
	root.AddCommand(NewInitCmd(getwd))

	root.AddCommand(
		NewNewCmd(svc),
		NewAddCmd(svc),
		NewMoveCmd(svc),
		NewRemoveCmd(svc),
		NewNavCmd(svc),
		NewListCmd(svc),
		NewBooksCmd(svc),
		NewExportCmd(svc),
		NewBlockCmd(svc),
		NewCheckCmd(svc, svc),
		NewMCPCmd(svc),
	)
	return root
}
