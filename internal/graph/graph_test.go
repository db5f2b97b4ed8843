package graph

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

func node(id string, status roadmap.Status, deps ...string) roadmap.Node {
	return roadmap.Node{ID: id, Description: "step " + id, Status: status, DependsOn: deps}
}

func nodeIDs(nodes []roadmap.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func mustBuild(t *testing.T, phases []roadmap.Phase) *Graph {
	t.Helper()
	g, err := Build(phases)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func TestFromPhases_LinearChain(t *testing.T) {
	phases := roadmap.GroupPhases([]roadmap.Node{
		node("1.1", roadmap.StatusDone),
		node("1.2", roadmap.StatusPending),
		node("1.3", roadmap.StatusPending),
		node("2.1", roadmap.StatusPending),
		node("2.2", roadmap.StatusPending),
	})
	g, err := FromPhases(phases)
	if err != nil {
		t.Fatalf("FromPhases() error = %v", err)
	}

	tests := []struct {
		id   string
		want []string
	}{
		{"1.1", nil},
		{"1.2", []string{"1.1"}},
		{"1.3", []string{"1.2"}},
		{"2.1", []string{"1.3"}},
		{"2.2", []string{"2.1"}},
	}
	for _, tt := range tests {
		if got := g.DependsOn(tt.id); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DependsOn(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if !g.Inferred() {
		t.Error("Inferred() = false, want true")
	}
	if got := g.Dependents("1.3"); !reflect.DeepEqual(got, []string{"2.1"}) {
		t.Errorf("Dependents(1.3) = %v, want [2.1]", got)
	}
}

func TestFromPhases_RepeatedID(t *testing.T) {
	phases := []roadmap.Phase{{
		Key: roadmap.PhaseKey{Number: 1},
		Nodes: []roadmap.Node{
			node("1.1", roadmap.StatusDone),
			node("1.2", roadmap.StatusPending),
			node("1.1", roadmap.StatusPending),
		},
	}}
	g, err := Build(phases)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	if got := g.DependsOn("1.1"); got != nil {
		t.Errorf("DependsOn(1.1) = %v, want nil", got)
	}
	if got := g.DependsOn("1.2"); !reflect.DeepEqual(got, []string{"1.1"}) {
		t.Errorf("DependsOn(1.2) = %v, want [1.1]", got)
	}
	if n, ok := g.NextNode(); !ok || n.ID != "1.2" {
		t.Errorf("NextNode() = %v, %v, want 1.2", n.ID, ok)
	}
}

func TestBuild_ThreeNodeChainExample(t *testing.T) {
	g := mustBuild(t, roadmap.GroupPhases([]roadmap.Node{
		node("1.1", roadmap.StatusDone),
		node("1.2", roadmap.StatusPending),
		node("1.3", roadmap.StatusPending),
	}))

	if got := nodeIDs(g.UnblockedNodes()); !reflect.DeepEqual(got, []string{"1.1", "1.2"}) {
		// 1.1 has no dependencies, so it is unblocked regardless of its own status.
		t.Errorf("UnblockedNodes() = %v, want [1.1 1.2]", got)
	}
	next, ok := g.NextNode()
	if !ok || next.ID != "1.2" {
		t.Errorf("NextNode() = %v, %v; want 1.2", next.ID, ok)
	}
	if g.IsComplete() {
		t.Error("IsComplete() = true, want false")
	}
}

func TestBuild_ExplicitDependenciesWin(t *testing.T) {
	phases := roadmap.GroupPhases([]roadmap.Node{
		node("1.1", roadmap.StatusDone),
		node("1.2", roadmap.StatusPending),
		node("2.1", roadmap.StatusPending, "1.1"),
		node("2.2", roadmap.StatusPending, "1.2"),
	})
	g := mustBuild(t, phases)

	if g.Inferred() {
		t.Error("Inferred() = true, want false")
	}
	// 1.2 declares nothing, so it is not chained after 1.1.
	if deps := g.DependsOn("1.2"); len(deps) != 0 {
		t.Errorf("DependsOn(1.2) = %v, want none", deps)
	}
	if got := nodeIDs(g.PendingUnblockedNodes()); !reflect.DeepEqual(got, []string{"1.2", "2.1"}) {
		t.Errorf("PendingUnblockedNodes() = %v, want [1.2 2.1]", got)
	}
}

func TestUnblocked_TerminalStatuses(t *testing.T) {
	tests := []struct {
		name      string
		depStatus roadmap.Status
		want      bool
	}{
		{"done", roadmap.StatusDone, true},
		{"skipped", roadmap.StatusSkipped, true},
		{"pending", roadmap.StatusPending, false},
		{"planning", roadmap.StatusPlanning, false},
		{"in progress", roadmap.StatusInProgress, false},
		{"blocked", roadmap.StatusBlocked, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromNodes([]roadmap.Node{
				node("1.1", tt.depStatus),
				node("1.2", roadmap.StatusPending, "1.1"),
			})
			if err != nil {
				t.Fatalf("FromNodes() error = %v", err)
			}
			got := false
			for _, n := range g.UnblockedNodes() {
				if n.ID == "1.2" {
					got = true
				}
			}
			if got != tt.want {
				t.Errorf("1.2 unblocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnknownDependencyNeverSatisfied(t *testing.T) {
	g, err := FromNodes([]roadmap.Node{
		node("1.1", roadmap.StatusPending, "9.9"),
		node("1.2", roadmap.StatusPending),
	})
	if err != nil {
		t.Fatalf("FromNodes() error = %v", err)
	}
	if got := nodeIDs(g.PendingUnblockedNodes()); !reflect.DeepEqual(got, []string{"1.2"}) {
		t.Errorf("PendingUnblockedNodes() = %v, want [1.2]", got)
	}
	if status, ok := g.MinDepStatus("1.1"); !ok || status != roadmap.StatusPending {
		t.Errorf("MinDepStatus(1.1) = %q, %v; want pending", status, ok)
	}
	if got := g.ExecutionOrder(); !reflect.DeepEqual(got, [][]string{{"1.2"}}) {
		t.Errorf("ExecutionOrder() = %v, want [[1.2]]", got)
	}
}

func TestNextNode_NoneReady(t *testing.T) {
	g, err := FromNodes([]roadmap.Node{
		node("1.1", roadmap.StatusInProgress),
		node("1.2", roadmap.StatusPending, "1.1"),
	})
	if err != nil {
		t.Fatalf("FromNodes() error = %v", err)
	}
	if _, ok := g.NextNode(); ok {
		t.Error("NextNode() ok = true, want false")
	}
	if len(g.PendingUnblockedNodes()) != 0 {
		t.Error("PendingUnblockedNodes() not empty")
	}
	current, ok := g.CurrentNode()
	if !ok || current.ID != "1.1" {
		t.Errorf("CurrentNode() = %q, %v; want 1.1", current.ID, ok)
	}
}

func TestMinDepStatus(t *testing.T) {
	tests := []struct {
		name   string
		deps   []roadmap.Status
		want   roadmap.Status
		wantOK bool
	}{
		{name: "no deps", deps: nil, wantOK: false},
		{name: "all done", deps: []roadmap.Status{roadmap.StatusDone, roadmap.StatusDone}, want: roadmap.StatusDone, wantOK: true},
		{name: "skipped beats done", deps: []roadmap.Status{roadmap.StatusDone, roadmap.StatusSkipped}, want: roadmap.StatusSkipped, wantOK: true},
		{name: "pending is most blocking", deps: []roadmap.Status{roadmap.StatusBlocked, roadmap.StatusPending, roadmap.StatusInProgress}, want: roadmap.StatusPending, wantOK: true},
		{name: "blocked before in progress", deps: []roadmap.Status{roadmap.StatusInProgress, roadmap.StatusBlocked}, want: roadmap.StatusBlocked, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nodes []roadmap.Node
			var depIDs []string
			for i, s := range tt.deps {
				id := "1." + string(rune('1'+i))
				nodes = append(nodes, node(id, s))
				depIDs = append(depIDs, id)
			}
			nodes = append(nodes, node("2.1", roadmap.StatusPending, depIDs...))
			g, err := New(nodes, map[string][]string{"2.1": depIDs})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got, ok := g.MinDepStatus("2.1")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MinDepStatus() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	done, _ := FromNodes([]roadmap.Node{node("1.1", roadmap.StatusDone), node("1.2", roadmap.StatusSkipped)})
	if !done.IsComplete() {
		t.Error("IsComplete() = false for all-terminal graph")
	}
	open, _ := FromNodes([]roadmap.Node{node("1.1", roadmap.StatusDone), node("1.2", roadmap.StatusBlocked)})
	if open.IsComplete() {
		t.Error("IsComplete() = true with a blocked node")
	}
}

func TestNew_RejectsCycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes []roadmap.Node
		want  string
	}{
		{
			name:  "self loop",
			nodes: []roadmap.Node{node("1.1", roadmap.StatusPending, "1.1")},
			want:  "1.1 -> 1.1",
		},
		{
			name: "three cycle",
			nodes: []roadmap.Node{
				node("1.1", roadmap.StatusPending, "1.3"),
				node("1.2", roadmap.StatusPending, "1.1"),
				node("1.3", roadmap.StatusPending, "1.2"),
			},
			want: "1.1 -> 1.3 -> 1.2 -> 1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromNodes(tt.nodes)
			if !errors.Is(err, errors.ErrDependencyCycle) {
				t.Fatalf("FromNodes() error = %v, want ErrDependencyCycle", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name cycle %q", err.Error(), tt.want)
			}
		})
	}
}

func TestExecutionOrder(t *testing.T) {
	g, err := FromNodes([]roadmap.Node{
		node("1.1", roadmap.StatusPending),
		node("1.2", roadmap.StatusPending),
		node("2.1", roadmap.StatusPending, "1.1", "1.2"),
		node("2.2", roadmap.StatusPending, "1.1"),
		node("3.1", roadmap.StatusPending, "2.1", "2.2"),
	})
	if err != nil {
		t.Fatalf("FromNodes() error = %v", err)
	}
	want := [][]string{{"1.1", "1.2"}, {"2.1", "2.2"}, {"3.1"}}
	if got := g.ExecutionOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExecutionOrder() = %v, want %v", got, want)
	}
}

func TestToPhases_RoundTrip(t *testing.T) {
	inferred := mustBuild(t, roadmap.GroupPhases([]roadmap.Node{
		node("1.1", roadmap.StatusDone),
		node("2.1", roadmap.StatusPending),
	}))
	phases := inferred.ToPhases()
	if len(phases) != 2 || phases[1].Name != "Phase 2" {
		t.Fatalf("ToPhases() = %+v", phases)
	}
	if phases[1].Nodes[0].DependsOn != nil {
		t.Errorf("inferred edge leaked into node: %v", phases[1].Nodes[0].DependsOn)
	}

	explicit := mustBuild(t, roadmap.GroupPhases([]roadmap.Node{
		node("1.1", roadmap.StatusDone),
		node("2.1", roadmap.StatusPending, "1.1"),
	}))
	if got := explicit.ToPhases()[1].Nodes[0].DependsOn; !reflect.DeepEqual(got, []string{"1.1"}) {
		t.Errorf("explicit edge lost: %v", got)
	}
}

func TestSnapshot_JSON(t *testing.T) {
	nodes := []roadmap.Node{
		{ID: "1.1", Description: "a", Status: roadmap.StatusDone, PR: "#1"},
		{ID: "1.2", Description: "b", Status: roadmap.StatusInProgress, Plan: "#2"},
		{ID: "1.3", Description: "c", Status: roadmap.StatusPending},
	}
	g := mustBuild(t, roadmap.GroupPhases(nodes))

	data, err := json.Marshal(g.Snapshot())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded["next_node"] != nil {
		t.Errorf("next_node = %v, want null", decoded["next_node"])
	}
	if decoded["is_complete"] != false {
		t.Errorf("is_complete = %v, want false", decoded["is_complete"])
	}

	summary := decoded["summary"].(map[string]any)
	if summary["total"] != float64(3) || summary["in_progress"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}

	first := decoded["nodes"].([]any)[0].(map[string]any)
	if first["plan"] != nil || first["pr"] != "#1" {
		t.Errorf("node 1.1 = %v", first)
	}
	if deps := first["depends_on"].([]any); len(deps) != 0 {
		t.Errorf("node 1.1 depends_on = %v, want []", deps)
	}
	if _, ok := first["waiting_on"]; ok {
		t.Errorf("node 1.1 waiting_on = %v, want omitted", first["waiting_on"])
	}
	if last := decoded["nodes"].([]any)[2].(map[string]any); last["waiting_on"] != "in_progress" {
		t.Errorf("node 1.3 waiting_on = %v, want in_progress", last["waiting_on"])
	}
	if decoded["current_node"] != "1.2" {
		t.Errorf("current_node = %v, want 1.2", decoded["current_node"])
	}
	snap := g.Snapshot()
	if want := [][]string{{"1.1"}, {"1.2"}, {"1.3"}}; !reflect.DeepEqual(snap.Waves, want) {
		t.Errorf("waves = %v, want %v", snap.Waves, want)
	}
}
