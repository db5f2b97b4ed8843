// Package graph builds dependency graphs over roadmap nodes and answers the
// traversal questions dispatch and display need: which nodes are unblocked,
// which one to start next, and what a node is waiting on.
//
// A Graph is immutable. It is rebuilt from parsed document text on every
// read; nothing is cached across operations.
package graph

import (
	"slices"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// Graph is a DAG of roadmap nodes. Edges point from a node to the nodes it
// depends on.
type Graph struct {
	nodes      []roadmap.Node
	index      map[string]int
	deps       map[string][]string
	dependents map[string][]string
	inferred   bool
}

// New builds a graph from nodes and an explicit dependency map keyed by node
// ID. Node order is preserved as document order. Dependencies on IDs that are
// not in the graph are kept; such a dependency is never satisfied. A cycle is
// rejected with ErrDependencyCycle.
func New(nodes []roadmap.Node, deps map[string][]string) (*Graph, error) {
	g := &Graph{
		nodes:      make([]roadmap.Node, 0, len(nodes)),
		index:      make(map[string]int, len(nodes)),
		deps:       make(map[string][]string, len(nodes)),
		dependents: make(map[string][]string),
	}
	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			// First occurrence wins; duplicates are a semantic defect
			// reported by validation.
			continue
		}
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n.Clone())
	}
	for _, n := range g.nodes {
		for _, d := range deps[n.ID] {
			if slices.Contains(g.deps[n.ID], d) {
				continue
			}
			g.deps[n.ID] = append(g.deps[n.ID], d)
			g.dependents[d] = append(g.dependents[d], n.ID)
		}
	}

	if cycle := FindCycle(g.nodes, g.deps); cycle != nil {
		return nil, errors.Wrapf(errors.ErrDependencyCycle, "%s", strings.Join(cycle, " -> "))
	}
	return g, nil
}

// FromNodes builds a graph from each node's explicit DependsOn list.
func FromNodes(nodes []roadmap.Node) (*Graph, error) {
	deps := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		if _, seen := deps[n.ID]; !seen {
			deps[n.ID] = n.DependsOn
		}
	}
	return New(nodes, deps)
}

// FromPhases infers a single linear chain: the first node of each phase
// depends on the last node of the previous non-empty phase, every other node
// on its predecessor within the phase. Explicit DependsOn lists are ignored.
// A repeated ID keeps its first position in the chain.
func FromPhases(phases []roadmap.Phase) (*Graph, error) {
	var nodes []roadmap.Node
	deps := make(map[string][]string)
	seen := make(map[string]bool)
	prev := ""
	for _, p := range phases {
		for _, n := range p.Nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			if prev != "" {
				deps[n.ID] = []string{prev}
			}
			nodes = append(nodes, n)
			prev = n.ID
		}
	}
	g, err := New(nodes, deps)
	if err != nil {
		return nil, err
	}
	g.inferred = true
	return g, nil
}

// Build picks the construction strategy for phases: explicit dependencies
// when any node declares one, otherwise the inferred linear chain.
func Build(phases []roadmap.Phase) (*Graph, error) {
	for _, p := range phases {
		for _, n := range p.Nodes {
			if len(n.DependsOn) > 0 {
				return FromNodes(roadmap.Flatten(phases))
			}
		}
	}
	return FromPhases(phases)
}

// FindCycle returns the node IDs forming a dependency cycle, starting and
// ending with the same ID, or nil when the graph is acyclic.
func FindCycle(nodes []roadmap.Node, deps map[string][]string) []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	parent := make(map[string]string)

	var dfs func(id string) []string
	dfs = func(id string) []string {
		visited[id] = true
		recStack[id] = true

		for _, depID := range deps[id] {
			if !visited[depID] {
				parent[depID] = id
				if cycle := dfs(depID); cycle != nil {
					return cycle
				}
			} else if recStack[depID] {
				cycle := []string{depID}
				current := id
				for current != depID {
					cycle = append([]string{current}, cycle...)
					current = parent[current]
				}
				return append([]string{depID}, cycle...)
			}
		}

		recStack[id] = false
		return nil
	}

	for _, n := range nodes {
		if !visited[n.ID] {
			if cycle := dfs(n.ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Inferred reports whether edges were inferred from phase order rather than
// declared.
func (g *Graph) Inferred() bool { return g.inferred }

// Nodes returns the nodes in document order.
func (g *Graph) Nodes() []roadmap.Node {
	out := make([]roadmap.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (roadmap.Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return roadmap.Node{}, false
	}
	return g.nodes[i].Clone(), true
}

// DependsOn returns the direct dependencies of id.
func (g *Graph) DependsOn(id string) []string {
	return slices.Clone(g.deps[id])
}

// Dependents returns the nodes that depend directly on id.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.dependents[id])
}

// satisfied reports whether dependency id is terminal. Unknown IDs never are.
func (g *Graph) satisfied(id string) bool {
	i, ok := g.index[id]
	return ok && g.nodes[i].Status.IsTerminal()
}

func (g *Graph) isUnblocked(id string) bool {
	for _, d := range g.deps[id] {
		if !g.satisfied(d) {
			return false
		}
	}
	return true
}

// UnblockedNodes returns every node whose dependencies are all terminal,
// regardless of the node's own status, in document order.
func (g *Graph) UnblockedNodes() []roadmap.Node {
	var out []roadmap.Node
	for _, n := range g.nodes {
		if g.isUnblocked(n.ID) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// PendingUnblockedNodes returns the unblocked nodes whose own status is
// pending, in document order. This is the fan-out set for dispatch.
func (g *Graph) PendingUnblockedNodes() []roadmap.Node {
	var out []roadmap.Node
	for _, n := range g.nodes {
		if n.Status == roadmap.StatusPending && g.isUnblocked(n.ID) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// NextNode returns the first pending unblocked node.
func (g *Graph) NextNode() (roadmap.Node, bool) {
	for _, n := range g.nodes {
		if n.Status == roadmap.StatusPending && g.isUnblocked(n.ID) {
			return n.Clone(), true
		}
	}
	return roadmap.Node{}, false
}

// CurrentNode is for display only: the next node, or when nothing is ready
// the first node already in progress. Dispatch must use NextNode.
func (g *Graph) CurrentNode() (roadmap.Node, bool) {
	if n, ok := g.NextNode(); ok {
		return n, true
	}
	for _, n := range g.nodes {
		if n.Status == roadmap.StatusInProgress {
			return n.Clone(), true
		}
	}
	return roadmap.Node{}, false
}

// blockingRank orders statuses from most to least blocking.
var blockingRank = map[roadmap.Status]int{
	roadmap.StatusPending:    0,
	roadmap.StatusBlocked:    1,
	roadmap.StatusPlanning:   2,
	roadmap.StatusInProgress: 3,
	roadmap.StatusSkipped:    4,
	roadmap.StatusDone:       5,
}

// MinDepStatus returns the most blocking status among the direct
// dependencies of id. ok is false when id has no dependencies. An unknown
// dependency counts as pending.
func (g *Graph) MinDepStatus(id string) (roadmap.Status, bool) {
	deps := g.deps[id]
	if len(deps) == 0 {
		return "", false
	}
	best := roadmap.StatusDone
	for _, d := range deps {
		status := roadmap.StatusPending
		if i, ok := g.index[d]; ok {
			status = g.nodes[i].Status
		}
		if blockingRank[status] < blockingRank[best] {
			best = status
		}
	}
	return best, true
}

// IsComplete reports whether every node is terminal. An empty graph is
// complete.
func (g *Graph) IsComplete() bool {
	for _, n := range g.nodes {
		if !n.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// ExecutionOrder groups node IDs into waves: every node in a wave depends
// only on nodes of earlier waves. Nodes depending on unknown IDs are left
// out.
func (g *Graph) ExecutionOrder() [][]string {
	inDegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n.ID] = len(g.deps[n.ID])
	}

	var groups [][]string
	completed := make(map[string]bool)
	for len(completed) < len(g.nodes) {
		var current []string
		for _, n := range g.nodes {
			if !completed[n.ID] && inDegree[n.ID] == 0 {
				current = append(current, n.ID)
			}
		}
		if len(current) == 0 {
			break
		}
		groups = append(groups, current)
		for _, id := range current {
			completed[id] = true
			for _, dependent := range g.dependents[id] {
				inDegree[dependent]--
			}
		}
	}
	return groups
}

// ToPhases converts the graph back into placeholder-named phases. Inferred
// edges are dropped; declared ones are kept on each node. Names must be
// re-attached with roadmap.EnrichPhaseNames.
func (g *Graph) ToPhases() []roadmap.Phase {
	nodes := g.Nodes()
	for i := range nodes {
		if g.inferred {
			nodes[i].DependsOn = nil
		} else {
			nodes[i].DependsOn = g.DependsOn(nodes[i].ID)
		}
	}
	return roadmap.GroupPhases(nodes)
}
