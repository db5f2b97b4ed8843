package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/exitcode"
	"github.com/Iron-Ham/roadmap/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <ref>",
	Short: "Check a roadmap for semantic problems",
	Long: `Check a roadmap for problems that parse cleanly but make no sense.

This command checks:
  - Step ids are unique and every dependency names a known step
  - The dependency graph has no cycles
  - Finished steps reference a PR
  - Statuses agree with the plan and PR references
  - Phases are numbered without gaps
  - The step table agrees with the YAML block when both exist

The exit code indicates the result:
  0 - All checks passed (warnings may be printed)
  3 - One or more checks failed

Examples:
  roadmap validate acme/app#12
  roadmap validate --json docs/roadmap.md`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// ValidationOutput is the JSON output of validate.
type ValidationOutput struct {
	Objective string                 `json:"objective"`
	Passed    bool                   `json:"passed"`
	Checks    []validate.CheckResult `json:"checks"`
	Warnings  []string               `json:"warnings"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}
	result, err := a.svc.Validate(cmd.Context(), ref)
	if err != nil {
		return err
	}
	return reportValidation(a.out, ref.String(), result)
}

// reportValidation prints a validation result and returns an error carrying
// the validation exit code when a check failed.
func reportValidation(p *printer, objective string, result *validate.Result) error {
	if p.json {
		out := ValidationOutput{
			Objective: objective,
			Passed:    result.Passed,
			Checks:    result.Checks,
			Warnings:  result.Warnings,
		}
		if out.Warnings == nil {
			out.Warnings = []string{}
		}
		if err := p.JSON(out); err != nil {
			return err
		}
	} else {
		for _, c := range result.Checks {
			p.Check(c.Passed, c.Name, c.Message)
			if !c.Passed {
				if len(c.Details) > 0 {
					p.Printf("%s\n", indent(strings.Join(c.Details, "\n"), "    "))
				}
				if c.Suggestion != "" {
					p.Printf("    %s\n", p.style(mutedStyle, c.Suggestion))
				}
			}
		}
		p.Warnings(result.Warnings)
	}

	if !result.Passed {
		failed := result.Failed()
		names := make([]string, 0, len(failed))
		for _, c := range failed {
			names = append(names, c.Name)
		}
		return reported(exitcode.New(exitcode.Invalid, fmt.Errorf("validation failed: %s", strings.Join(names, ", "))))
	}
	return nil
}
