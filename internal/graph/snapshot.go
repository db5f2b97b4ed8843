package graph

import "github.com/Iron-Ham/roadmap/internal/roadmap"

// Summary counts nodes by status.
type Summary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Planning   int `json:"planning"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Blocked    int `json:"blocked"`
	Skipped    int `json:"skipped"`
}

// Count returns the number of nodes with status s.
func (s Summary) Count(status roadmap.Status) int {
	switch status {
	case roadmap.StatusPending:
		return s.Pending
	case roadmap.StatusPlanning:
		return s.Planning
	case roadmap.StatusInProgress:
		return s.InProgress
	case roadmap.StatusDone:
		return s.Done
	case roadmap.StatusBlocked:
		return s.Blocked
	case roadmap.StatusSkipped:
		return s.Skipped
	default:
		return 0
	}
}

// Summary returns per-status node counts.
func (g *Graph) Summary() Summary {
	s := Summary{Total: len(g.nodes)}
	for _, n := range g.nodes {
		switch n.Status {
		case roadmap.StatusPending:
			s.Pending++
		case roadmap.StatusPlanning:
			s.Planning++
		case roadmap.StatusInProgress:
			s.InProgress++
		case roadmap.StatusDone:
			s.Done++
		case roadmap.StatusBlocked:
			s.Blocked++
		case roadmap.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// NodeView is the JSON shape of a node. Missing references encode as null.
type NodeView struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Status      roadmap.Status `json:"status"`
	Plan        *string        `json:"plan"`
	PR          *string        `json:"pr"`
	DependsOn   []string       `json:"depends_on"`
	// WaitingOn is the most blocking status among the dependencies of an
	// unfinished node that cannot start yet.
	WaitingOn roadmap.Status `json:"waiting_on,omitempty"`
}

// Snapshot is the JSON-serializable view of a graph handed to CLI consumers.
type Snapshot struct {
	Nodes            []NodeView `json:"nodes"`
	Unblocked        []string   `json:"unblocked"`
	PendingUnblocked []string   `json:"pending_unblocked"`
	NextNode         *string    `json:"next_node"`
	CurrentNode      *string    `json:"current_node"`
	IsComplete       bool       `json:"is_complete"`
	Summary          Summary    `json:"summary"`
	Waves            [][]string `json:"waves"`
}

// Snapshot captures the graph and its traversal answers. depends_on lists
// effective edges, so inferred dependencies are visible too. waves groups
// the nodes in execution order.
func (g *Graph) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:            make([]NodeView, 0, len(g.nodes)),
		Unblocked:        ids(g.UnblockedNodes()),
		PendingUnblocked: ids(g.PendingUnblockedNodes()),
		IsComplete:       g.IsComplete(),
		Summary:          g.Summary(),
		Waves:            g.ExecutionOrder(),
	}
	if snap.Waves == nil {
		snap.Waves = [][]string{}
	}
	for _, n := range g.nodes {
		deps := g.DependsOn(n.ID)
		if deps == nil {
			deps = []string{}
		}
		view := NodeView{
			ID:          n.ID,
			Description: n.Description,
			Status:      n.Status,
			Plan:        optional(n.Plan),
			PR:          optional(n.PR),
			DependsOn:   deps,
		}
		if !n.Status.IsTerminal() && !g.isUnblocked(n.ID) {
			view.WaitingOn, _ = g.MinDepStatus(n.ID)
		}
		snap.Nodes = append(snap.Nodes, view)
	}
	if next, ok := g.NextNode(); ok {
		snap.NextNode = &next.ID
	}
	if current, ok := g.CurrentNode(); ok {
		snap.CurrentNode = &current.ID
	}
	return snap
}

func ids(nodes []roadmap.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
