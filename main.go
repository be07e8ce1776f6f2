// Package main is the entry point for the bk CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/eykd/booktree-go/cmd"
)

func main() {
	// Create a context that is cancelled on SIGINT (Ctrl+C).
	// This enables graceful shutdown for long-running operations.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)

	ws := cmd.NewWorkspace(os.Getwd)
	root := cmd.BuildCommandTree(ws, os.Getwd)
	root.SetContext(ctx)
	code := cmd.RunCLI(root, os.Args[1:], os.Stdout, os.Stderr)

	if err := ws.Close(); err != nil {
		fmt.Fprint(os.Stderr, cmd.FormatError(err))
		if code == 0 {
			code = cmd.ExitFailure
		}
	}
	cancel()
	os.Exit(code)
}
