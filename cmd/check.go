package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eykd/booktree-go/internal/domain"
)

// checkJSONResponse is the JSON output structure for the check command.
type checkJSONResponse struct {
	Findings []domain.Finding `json:"findings"`
	Summary  struct {
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
	} `json:"summary"`
}

// countBySeverity counts errors and warnings in a slice of findings.
func countBySeverity(findings []domain.Finding) (errCount, warnCount int) {
	for _, f := range findings {
		if f.Severity == domain.SeverityError {
			errCount++
		} else {
			warnCount++
		}
	}
	return
}

// formatCheckJSON writes findings as JSON to w.
func formatCheckJSON(w io.Writer, findings []domain.Finding, errCount, warnCount int) {
	if findings == nil {
		findings = []domain.Finding{}
	}
	out := checkJSONResponse{Findings: findings}
	out.Summary.Errors = errCount
	out.Summary.Warnings = warnCount
	writeJSON(w, out)
}

// formatCheckHuman writes findings as human-readable text to w.
func formatCheckHuman(w io.Writer, findings []domain.Finding, errCount, warnCount int) {
	for _, f := range findings {
		fmt.Fprintf(w, "%s [%s] %s: %s\n", f.Item, f.Severity, f.Type, f.Message)
	}
	if errCount > 0 || warnCount > 0 {
		fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", errCount, warnCount)
	}
}

// runCheckAndReport runs the checker and formats findings as JSON or human-readable text.
// It returns a FindingsDetectedError if any findings are present.
func runCheckAndReport(cmd *cobra.Command, runner CheckRunner) error {
	findings, err := runner.Check(cmd.Context())
	if err != nil {
		return err
	}

	errCount, warnCount := countBySeverity(findings)

	if jsonOutput(cmd) {
		formatCheckJSON(cmd.OutOrStdout(), findings, errCount, warnCount)
	} else {
		formatCheckHuman(cmd.OutOrStdout(), findings, errCount, warnCount)
	}

	if len(findings) > 0 {
		return &FindingsDetectedError{Errors: errCount, Warnings: warnCount}
	}
	return nil
}

// runRepairAndReport repairs the outline and reports the result.
// It returns an UnrepairedError if findings remain afterwards.
func runRepairAndReport(cmd *cobra.Command, runner RepairRunner) error {
	result, err := runner.Repair(cmd.Context())
	if err != nil {
		return err
	}
	if result.Dropped == nil {
		result.Dropped = []string{}
	}
	if result.Unrepaired == nil {
		result.Unrepaired = []domain.Finding{}
	}

	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		writeJSON(w, result)
	} else {
		fmt.Fprintf(w, "Rewrote %d entries\n", result.Rewritten)
		for _, id := range result.Dropped {
			fmt.Fprintf(w, "Dropped unreachable entry %s\n", id)
		}
		errCount, warnCount := countBySeverity(result.Unrepaired)
		formatCheckHuman(w, result.Unrepaired, errCount, warnCount)
	}

	if len(result.Unrepaired) > 0 {
		return &UnrepairedError{Count: len(result.Unrepaired)}
	}
	return nil
}

// NewCheckCmd creates the check command with the given runners.
func NewCheckCmd(checker CheckRunner, repairer RepairRunner) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Validate book outlines",
		Long:         "Validate book outlines. Exits with status 2 when findings remain. --repair rewrites the stored outline from its valid state and drops entries that cannot be reached.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repair {
				if repairer == nil {
					return ErrNotInProject
				}
				return runRepairAndReport(cmd, repairer)
			}
			if checker == nil {
				return ErrNotInProject
			}
			return runCheckAndReport(cmd, checker)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Repair what can be repaired")

	return cmd
}
