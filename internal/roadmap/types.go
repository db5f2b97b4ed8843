// Package roadmap models objective roadmaps: the steps (nodes) an objective
// decomposes into, their grouping into phases, and the two textual encodings
// a roadmap lives in inside an issue body.
//
// The package is organized around a one-way read pipeline:
//
//  1. Parse: document text → structural Result (tables and/or YAML block)
//  2. EnrichPhaseNames: attach phase names found in free-text headers
//  3. Render*: Result phases → canonical text for full-body rewrites
//
// Nothing here talks to an issue tracker; callers pass strings in and get
// strings or values back.
package roadmap

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a single roadmap node.
type Status string

const (
	// StatusPending means the node has not been started.
	StatusPending Status = "pending"
	// StatusPlanning means a plan for the node is being drafted.
	StatusPlanning Status = "planning"
	// StatusInProgress means a plan or PR exists for the node.
	StatusInProgress Status = "in_progress"
	// StatusDone means the node's deliverable has landed.
	StatusDone Status = "done"
	// StatusBlocked means the node is held on something outside the roadmap.
	StatusBlocked Status = "blocked"
	// StatusSkipped means the node was intentionally dropped.
	StatusSkipped Status = "skipped"
)

// AllStatuses returns every canonical status in display order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusPlanning,
		StatusInProgress,
		StatusDone,
		StatusBlocked,
		StatusSkipped,
	}
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	return slices.Contains(AllStatuses(), s)
}

// IsTerminal reports whether s satisfies downstream dependents.
// Only done and skipped are terminal.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// String returns the canonical text of the status.
func (s Status) String() string {
	return string(s)
}

// Node is a single roadmap step.
type Node struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Plan        string   `json:"plan,omitempty"`
	PR          string   `json:"pr,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// Phase returns the key of the phase this node belongs to, derived from the
// prefix of its ID.
func (n Node) Phase() (PhaseKey, bool) {
	return ParsePhaseKey(n.ID)
}

// Clone returns a copy of n that shares no slices with it.
func (n Node) Clone() Node {
	n.DependsOn = slices.Clone(n.DependsOn)
	return n
}

// PhaseKey identifies a phase by number and optional sub-phase letter,
// e.g. "2" or "2A".
type PhaseKey struct {
	Number int
	Suffix string
}

// phaseKeyRe matches the phase prefix of a node ID: "1.1", "2A.3", or a bare "4".
var phaseKeyRe = regexp.MustCompile(`^(\d+)([A-Za-z]?)(?:\.|$)`)

// ParsePhaseKey extracts the phase key from a node ID.
func ParsePhaseKey(id string) (PhaseKey, bool) {
	m := phaseKeyRe.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return PhaseKey{}, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return PhaseKey{}, false
	}
	return PhaseKey{Number: num, Suffix: strings.ToUpper(m[2])}, true
}

// String renders the key as it appears in node IDs and headers.
func (k PhaseKey) String() string {
	return fmt.Sprintf("%d%s", k.Number, k.Suffix)
}

// Compare orders keys by (number, suffix).
func (k PhaseKey) Compare(other PhaseKey) int {
	if k.Number != other.Number {
		if k.Number < other.Number {
			return -1
		}
		return 1
	}
	return strings.Compare(k.Suffix, other.Suffix)
}

// Phase is an ordered group of nodes sharing a phase key. Names are not part
// of the structured data; they are attached by EnrichPhaseNames.
type Phase struct {
	Key   PhaseKey `json:"key"`
	Name  string   `json:"name"`
	Nodes []Node   `json:"nodes"`
}

// PlaceholderName is the name a phase carries until a header names it.
func PlaceholderName(key PhaseKey) string {
	return "Phase " + key.String()
}

// HasPlaceholderName reports whether the phase still carries its default name.
func (p Phase) HasPlaceholderName() bool {
	return p.Name == "" || p.Name == PlaceholderName(p.Key)
}

// IsComplete reports whether every node of the phase is terminal.
func (p Phase) IsComplete() bool {
	for _, n := range p.Nodes {
		if !n.Status.IsTerminal() {
			return false
		}
	}
	return len(p.Nodes) > 0
}

// Clone returns a deep copy of the phase.
func (p Phase) Clone() Phase {
	nodes := make([]Node, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = n.Clone()
	}
	p.Nodes = nodes
	return p
}

// GroupPhases groups nodes into phases by the prefix of their IDs. Node order
// within a phase follows input order; phases are sorted by key. Nodes whose
// IDs carry no phase prefix are placed in phase 0. Every phase gets a
// placeholder name.
func GroupPhases(nodes []Node) []Phase {
	byKey := make(map[PhaseKey]int)
	var phases []Phase
	for _, n := range nodes {
		key, _ := n.Phase()
		idx, ok := byKey[key]
		if !ok {
			idx = len(phases)
			byKey[key] = idx
			phases = append(phases, Phase{Key: key, Name: PlaceholderName(key)})
		}
		phases[idx].Nodes = append(phases[idx].Nodes, n.Clone())
	}
	slices.SortStableFunc(phases, func(a, b Phase) int {
		return a.Key.Compare(b.Key)
	})
	return phases
}

// Flatten returns the nodes of all phases in phase order.
func Flatten(phases []Phase) []Node {
	var nodes []Node
	for _, p := range phases {
		for _, n := range p.Nodes {
			nodes = append(nodes, n.Clone())
		}
	}
	return nodes
}

// ClonePhases returns a deep copy of phases.
func ClonePhases(phases []Phase) []Phase {
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	return out
}

// FindNode returns the first node with the given ID.
func FindNode(phases []Phase, id string) (Node, bool) {
	for _, p := range phases {
		for _, n := range p.Nodes {
			if n.ID == id {
				return n, true
			}
		}
	}
	return Node{}, false
}
