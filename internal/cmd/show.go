package cmd

import (
	"github.com/Iron-Ham/roadmap/internal/graph"
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a roadmap and its dependency graph",
	Long: `Show the steps of a roadmap, their resolved statuses and the
dependency graph between them.

On a terminal the roadmap is printed as a table; otherwise, or with --json,
the graph is printed as JSON:

  {
    "nodes": [{"id", "description", "status", "plan", "pr", "depends_on"}],
    "unblocked": [...],
    "pending_unblocked": [...],
    "next_node": "1.2",
    "current_node": "1.2",
    "is_complete": false,
    "summary": {"total", "pending", "planning", "in_progress", "done", "blocked", "skipped"},
    "waves": [["1.1"], ["1.2"], ...]
  }

A step that cannot start yet carries "waiting_on", the most blocking status
among its dependencies. Use --waves to print the execution order as text.

Examples:
  roadmap show acme/app#12
  roadmap show https://github.com/acme/app/issues/12 --json
  roadmap show docs/roadmap.md --waves`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("waves", false, "print the execution order as waves of steps")
	rootCmd.AddCommand(showCmd)
}

// phaseView is the JSON shape of a phase heading.
type phaseView struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

// ShowOutput is the JSON output of show.
type ShowOutput struct {
	Objective string `json:"objective"`
	Hash      string `json:"hash"`
	Source    string `json:"source"`
	graph.Snapshot
	Phases   []phaseView `json:"phases"`
	Warnings []string    `json:"warnings"`
}

func newShowOutput(v *objective.View) ShowOutput {
	out := ShowOutput{
		Objective: v.Ref.String(),
		Hash:      v.Hash,
		Source:    v.Result.Source.String(),
		Snapshot:  v.Snapshot(),
		Phases:    phaseViews(v.Phases()),
		Warnings:  v.Result.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}

func phaseViews(phases []roadmap.Phase) []phaseView {
	views := make([]phaseView, 0, len(phases))
	for _, p := range phases {
		ids := make([]string, 0, len(p.Nodes))
		for _, n := range p.Nodes {
			ids = append(ids, n.ID)
		}
		views = append(views, phaseView{Key: p.Key.String(), Name: p.Name, Nodes: ids})
	}
	return views
}

func runShow(cmd *cobra.Command, args []string) error {
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

	if a.out.json {
		return a.out.JSON(newShowOutput(view))
	}
	snap := view.Snapshot()
	a.out.Printf("%s\n\n", a.out.style(headerStyle, ref.String()))
	a.out.Roadmap(view.Phases(), snap, view.Result.Warnings)
	if waves, _ := cmd.Flags().GetBool("waves"); waves {
		a.out.Waves(snap.Waves)
	}
	return nil
}
