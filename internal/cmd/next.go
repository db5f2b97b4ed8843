package cmd

import (
	"github.com/Iron-Ham/roadmap/internal/roadmap"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next <ref>",
	Short: "Show the next step to work on",
	Long: `Show the first pending step whose dependencies are all finished, in
roadmap order, along with every other step that is ready to start.

When no step is ready the step already in progress is shown instead. It is
reported as current_node and never as next_node.`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

// NextOutput is the JSON output of next.
type NextOutput struct {
	NextNode    *roadmap.Node  `json:"next_node"`
	CurrentNode *roadmap.Node  `json:"current_node"`
	Ready       []roadmap.Node `json:"ready"`
	IsComplete  bool           `json:"is_complete"`
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}
	view, err := a.svc.Show(cmd.Context(), ref)
	if err != nil {
		return err
	}

	out := NextOutput{
		Ready:      view.Graph.PendingUnblockedNodes(),
		IsComplete: view.Graph.IsComplete(),
	}
	if next, ok := view.Graph.NextNode(); ok {
		out.NextNode = &next
	}
	if current, ok := view.Graph.CurrentNode(); ok {
		out.CurrentNode = &current
	}
	if out.Ready == nil {
		out.Ready = []roadmap.Node{}
	}

	if a.out.json {
		return a.out.JSON(out)
	}
	switch {
	case out.NextNode != nil:
		a.out.Printf("%s  %s\n", out.NextNode.ID, out.NextNode.Description)
		for _, n := range out.Ready[1:] {
			a.out.Printf("%s\n", a.out.style(mutedStyle, "also ready: "+n.ID+"  "+n.Description))
		}
	case out.IsComplete:
		a.out.Printf("%s\n", a.out.style(okStyle, "All steps are finished."))
	case out.CurrentNode != nil:
		a.out.Printf("No step is ready. In progress: %s  %s\n", out.CurrentNode.ID, out.CurrentNode.Description)
	default:
		a.out.Printf("No step is ready; every remaining step waits on unfinished dependencies.\n")
	}
	return nil
}
