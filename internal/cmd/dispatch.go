package cmd

import (
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/spf13/cobra"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <ref>",
	Short: "Create plan issues for every step that is ready",
	Long: `Create a plan issue for every pending step whose dependencies are
finished, and record each step as planning with its new plan reference.

The roadmap is read once and written once. A step whose issue could not be
created keeps its previous state; the others are still recorded.

Examples:
  roadmap dispatch acme/app#12
  roadmap dispatch acme/app#12 --filter '2.*' --limit 3 --label plan
  roadmap dispatch acme/app#12 --repo-for-plans acme/plans --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runDispatch,
}

var (
	dispatchFilter      string
	dispatchLimit       int
	dispatchRepo        string
	dispatchLabels      []string
	dispatchTitlePrefix string
	dispatchDryRun      bool
)

func init() {
	dispatchCmd.Flags().StringVar(&dispatchFilter, "filter", "", "glob over step ids, e.g. '2.*'")
	dispatchCmd.Flags().IntVar(&dispatchLimit, "limit", 0, "maximum number of steps to dispatch (default from dispatch.limit)")
	dispatchCmd.Flags().StringVar(&dispatchRepo, "repo-for-plans", "", "owner/repo to create plan issues in (default from dispatch.repo)")
	dispatchCmd.Flags().StringSliceVar(&dispatchLabels, "label", nil, "label for plan issues (repeatable, default from dispatch.labels)")
	dispatchCmd.Flags().StringVar(&dispatchTitlePrefix, "title-prefix", "", "plan issue title prefix (default from dispatch.plan_title_prefix)")
	dispatchCmd.Flags().BoolVar(&dispatchDryRun, "dry-run", false, "show what would be dispatched without creating issues")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	opts := objective.DispatchOptions{
		Filter:      dispatchFilter,
		Limit:       boundDefault(cmd, "limit", a.cfg.Dispatch.Limit, flags.GetInt),
		Repo:        boundDefault(cmd, "repo-for-plans", a.cfg.Dispatch.Repo, flags.GetString),
		Labels:      boundDefault(cmd, "label", a.cfg.Dispatch.Labels, flags.GetStringSlice),
		TitlePrefix: boundDefault(cmd, "title-prefix", a.cfg.Dispatch.PlanTitlePrefix, flags.GetString),
		DryRun:      boundDefault(cmd, "dry-run", a.cfg.Dispatch.DryRun, flags.GetBool),
	}

	result, err := a.svc.Dispatch(cmd.Context(), ref, opts)
	if err != nil && result == nil {
		return err
	}
	if printErr := printBatch(a.out, "dispatched", result); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}
	return batchError(result)
}

// printBatch reports a batch result.
func printBatch(p *printer, verb string, result *objective.BatchResult) error {
	if p.json {
		return p.JSON(result)
	}
	for _, n := range result.Updated {
		p.Printf("%s %s %s %s\n", p.style(okStyle, "✓"), n.ID, p.status(n.Status), refOrDash(n.Plan))
	}
	for _, f := range result.Failed {
		p.Printf("%s %s\n", p.style(failStyle, "✗"), f.String())
	}
	switch {
	case result.DryRun:
		p.Printf("%s\n", p.style(mutedStyle, "dry run: nothing written"))
	case result.Written:
		p.Printf("%s %d, failed %d (batch %s)\n", verb, len(result.Updated), len(result.Failed), result.BatchID)
	case len(result.Updated) == 0 && len(result.Failed) == 0:
		p.Printf("nothing to do\n")
	}
	return nil
}

// batchError turns per-node failures into a command error after the result
// was printed.
func batchError(result *objective.BatchResult) error {
	if err := result.Err(); err != nil {
		return reported(err)
	}
	return nil
}
