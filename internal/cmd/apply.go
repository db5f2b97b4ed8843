package cmd

import (
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <ref> <updates-file>",
	Short: "Apply a batch of step updates with one write",
	Long: `Apply several step updates read from a file, as one batch: the roadmap
is read once, every update is applied in order, and the document is written
once. Updates that fail are reported and skipped.

The file is JSON; comments and trailing commas are allowed. Use - for stdin.

  {
    "updates": [
      {"node_id": "1.2", "plan": "#40"},
      // finished
      {"node_id": "1.1", "status": "done", "plan": null, "pr": "#38"},
    ],
  }`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

var applyDryRun bool

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "print the updated document instead of writing it")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	updates, err := readUpdates(args[1], cmd.InOrStdin())
	if err != nil {
		return err
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
	result, err := a.svc.Apply(cmd.Context(), ref, updates, objective.BatchOptions{DryRun: applyDryRun})
	if err != nil && result == nil {
		return err
	}
	if applyDryRun && !a.out.json {
		a.out.Printf("%s", result.Document)
	} else if printErr := printBatch(a.out, "applied", result); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}
	return batchError(result)
}
