package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/outline"
)

// NewNavCmd creates the nav command, which prints the book navigation of a
// page.
func NewNavCmd(runner NavRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "nav <selector>",
		Short:        "Show breadcrumb, previous, up, next and child pages",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNotInProject
			}
			nav, err := runner.Navigation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), nav)
			} else {
				renderNavText(cmd.OutOrStdout(), nav)
			}
			return nil
		},
	}
}

func linkText(l outline.Link) string {
	return fmt.Sprintf("%s (%s)", l.Title, l.ID)
}

func renderNavText(w io.Writer, nav *outline.Navigation) {
	trail := make([]string, 0, len(nav.Breadcrumb)+1)
	for _, l := range nav.Breadcrumb {
		trail = append(trail, l.Title)
	}
	trail = append(trail, nav.Item.Title)
	fmt.Fprintln(w, strings.Join(trail, " > "))

	fmt.Fprintf(w, "Book:     %s\n", linkText(nav.Book))
	for _, row := range []struct {
		label string
		link  *outline.Link
	}{
		{"Previous", nav.Previous},
		{"Up", nav.Up},
		{"Next", nav.Next},
	} {
		if row.link != nil {
			fmt.Fprintf(w, "%-9s %s\n", row.label+":", linkText(*row.link))
		}
	}
	if len(nav.Children) > 0 {
		fmt.Fprintln(w, "Children:")
		for _, c := range nav.Children {
			fmt.Fprintf(w, "  - %s\n", linkText(c))
		}
	}
}
