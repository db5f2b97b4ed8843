package cmd

import (
	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <ref> <step-id>",
	Short: "Update the status, plan or PR of one step",
	Long: `Update one step in place. Only the fields you pass change; every
other byte of the document is left as it was.

Pass "-" to clear a field. Setting --pr requires saying what happens to the
plan, either a new --plan value or --plan - to clear it. When --status is
omitted it is recomputed from the references, unless the step carries an
explicit status that no flag touches.

Examples:
  # Record a plan issue for step 1.2
  roadmap update acme/app#12 1.2 --plan '#40'

  # Mark a step done, closing its plan issue
  roadmap update acme/app#12 1.2 --status done --plan - --pr '#41' --close-plan

  # Preview the edit without writing it
  roadmap update docs/roadmap.md 2.1 --status blocked --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

var (
	updateStatus    string
	updatePlan      string
	updatePR        string
	updateClosePlan bool
	updateDryRun    bool
)

func init() {
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status (pending, planning, in_progress, done, blocked, skipped), or - to infer")
	updateCmd.Flags().StringVar(&updatePlan, "plan", "", "plan reference, or - to clear")
	updateCmd.Flags().StringVar(&updatePR, "pr", "", "PR reference, or - to clear")
	updateCmd.Flags().BoolVar(&updateClosePlan, "close-plan", false, "close the plan issue when the step becomes done")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "print the updated document instead of writing it")
	rootCmd.AddCommand(updateCmd)
}

// fieldFlag turns a flag into a field update. An absent flag preserves the
// field.
func fieldFlag(cmd *cobra.Command, name, value string) mutate.Field {
	if !cmd.Flags().Changed(name) {
		return mutate.Preserve()
	}
	return mutate.Set(value)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	upd := mutate.NodeUpdate{
		Status: fieldFlag(cmd, "status", updateStatus),
		Plan:   fieldFlag(cmd, "plan", updatePlan),
		PR:     fieldFlag(cmd, "pr", updatePR),
	}
	if upd.IsEmpty() {
		return errors.NewValidationError("nothing to update: pass --status, --plan or --pr")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}
	result, err := a.svc.Update(cmd.Context(), ref, args[1], upd, objective.UpdateOptions{
		ClosePlan: updateClosePlan,
		DryRun:    updateDryRun,
	})
	if err != nil {
		return err
	}

	switch {
	case updateDryRun && !a.out.json:
		a.out.Printf("%s", result.Document)
		return nil
	case a.out.json:
		return a.out.JSON(result)
	}

	if !result.Changed {
		a.out.Printf("%s already up to date\n", result.NodeID)
		return nil
	}
	a.out.Printf("%s: %s → %s\n", result.NodeID, a.out.status(result.Before.Status), a.out.status(result.After.Status))
	a.out.Printf("  plan %s, pr %s\n", refOrDash(result.After.Plan), refOrDash(result.After.PR))
	if result.ClosedPlan != "" {
		a.out.Printf("  closed %s\n", result.ClosedPlan)
	}
	return nil
}
