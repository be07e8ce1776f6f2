package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/fs"
)

// ErrNotInProject is returned by commands that need a project when none
// encloses the working directory.
var ErrNotInProject = errors.New("not in a booktree project (run 'bk init' first)")

// ErrNoDestination is returned when add or move is given no destination.
var ErrNoDestination = errors.New("no destination: use --book, --parent, --before, --after or --first")

// ContextError adds operation and path context to an underlying error.
type ContextError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the formatted error string with context.
func (e *ContextError) Error() string {
	if e.Op != "" && e.Path != "" {
		return e.Op + ": " + e.Path + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	if e.Path != "" {
		return e.Path + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ContextError) Unwrap() error {
	return e.Err
}

// FindingsDetectedError is returned when check detects findings.
type FindingsDetectedError struct {
	Errors   int
	Warnings int
}

// Error implements the error interface.
func (e *FindingsDetectedError) Error() string {
	return fmt.Sprintf("check found %d errors, %d warnings", e.Errors, e.Warnings)
}

// ExitCode returns the exit code for findings (always 2).
func (e *FindingsDetectedError) ExitCode() int {
	return 2
}

// UnrepairedError is returned when repair leaves unresolved findings.
type UnrepairedError struct {
	Count int
}

// Error implements the error interface.
func (e *UnrepairedError) Error() string {
	return fmt.Sprintf("repair left %d unrepaired findings", e.Count)
}

// ExitCode returns the exit code for unrepaired findings (always 2).
func (e *UnrepairedError) ExitCode() int {
	return 2
}

// ExitCoder is implemented by errors that carry a specific process exit code.
type ExitCoder interface {
	ExitCode() int
}

// Exit codes.
const (
	ExitFailure  = 1
	ExitFindings = 2
	ExitNotFound = 3
)

// ExitCodeFromError returns the process exit code for err: 0 for nil, the
// code of an ExitCoder, ExitNotFound when a page, book or project could not
// be found, and ExitFailure otherwise.
func ExitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	for _, target := range []error{domain.ErrUnknownItem, domain.ErrUnknownBook, domain.ErrUnknownParent, fs.ErrNoProject, ErrNotInProject} {
		if errors.Is(err, target) {
			return ExitNotFound
		}
	}
	return ExitFailure
}

// FormatError formats an error with the "bk: " prefix and trailing newline.
func FormatError(err error) string {
	return fmt.Sprintf("bk: %s\n", err.Error())
}

// RunCLI executes the command with the given args, writing output to stdout
// and errors to stderr. It returns the appropriate exit code.
func RunCLI(cmd *cobra.Command, args []string, stdout io.Writer, stderr io.Writer) int {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(stderr, FormatError(err))
		return ExitCodeFromError(err)
	}
	return 0
}
