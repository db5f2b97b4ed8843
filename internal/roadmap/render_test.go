package roadmap

import (
	"reflect"
	"strings"
	"testing"
)

func renderDocument(phases []Phase, opts TableOptions) string {
	return RenderYAMLBlock(Flatten(phases)) + "\n" + RenderTables(phases, opts)
}

// withoutDeps drops depends_on, which only the YAML block carries.
func withoutDeps(phases []Phase) []Phase {
	out := ClonePhases(phases)
	for i := range out {
		for j := range out[i].Nodes {
			out[i].Nodes[j].DependsOn = nil
		}
	}
	return out
}

func TestRender_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		opts TableOptions
	}{
		{name: "current table", doc: currentDoc, opts: DefaultTableOptions()},
		{name: "legacy table", doc: legacyDoc, opts: DefaultTableOptions()},
		{name: "yaml block", doc: yamlDoc, opts: DefaultTableOptions()},
		{name: "collapsed", doc: currentDoc, opts: TableOptions{HeadingLevel: 2, CollapseCompleted: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Parse(tt.doc)
			rendered := renderDocument(first.Phases, tt.opts)

			second := Parse(rendered)
			if len(second.Warnings) != 0 {
				t.Fatalf("Warnings after render = %q", second.Warnings)
			}
			if !reflect.DeepEqual(second.Phases, first.Phases) {
				t.Errorf("Phases after round trip = %+v, want %+v", second.Phases, first.Phases)
			}
			if !reflect.DeepEqual(second.TablePhases, withoutDeps(second.Phases)) {
				t.Errorf("rendered table disagrees with yaml block")
			}
			if again := renderDocument(second.Phases, tt.opts); again != rendered {
				t.Errorf("render is not idempotent:\n%s\n---\n%s", rendered, again)
			}
		})
	}
}

func TestRenderTables_UpgradesLegacy(t *testing.T) {
	res := Parse(legacyDoc)
	out := RenderTables(res.Phases, DefaultTableOptions())

	if !strings.Contains(out, CurrentHeaderLine) {
		t.Errorf("output missing five-column header:\n%s", out)
	}
	if !strings.Contains(out, "| 1.2 | Wire config | in_progress | 123 | - |") {
		t.Errorf("output missing upgraded 1.2 row:\n%s", out)
	}
	if !strings.Contains(out, "### Phase 1: Setup (3 PR)") {
		t.Errorf("output missing phase heading:\n%s", out)
	}
	if Parse(out).Dialect != DialectCurrent {
		t.Error("rendered dialect is not current")
	}
}

func TestRenderTables_Collapse(t *testing.T) {
	phases := []Phase{
		{Key: PhaseKey{Number: 1}, Name: "Done", Nodes: []Node{{ID: "1.1", Description: "a", Status: StatusDone, PR: "#1"}}},
		{Key: PhaseKey{Number: 2}, Name: "Open", Nodes: []Node{{ID: "2.1", Description: "b", Status: StatusPending}}},
	}
	out := RenderTables(phases, TableOptions{HeadingLevel: 3, CollapseCompleted: true})

	if strings.Count(out, "<details>") != 1 {
		t.Errorf("want exactly one collapsed phase:\n%s", out)
	}
	if !strings.Contains(out, "<summary>1 steps complete</summary>") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

func TestRenderPhaseHeading(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		level int
		want  string
	}{
		{
			name:  "named",
			phase: Phase{Key: PhaseKey{Number: 2, Suffix: "A"}, Name: "Storage", Nodes: make([]Node, 2)},
			level: 3,
			want:  "### Phase 2A: Storage (2 PR)",
		},
		{
			name:  "placeholder",
			phase: Phase{Key: PhaseKey{Number: 4}, Name: "Phase 4"},
			level: 2,
			want:  "## Phase 4",
		},
		{
			name:  "bold",
			phase: Phase{Key: PhaseKey{Number: 1}, Name: "Base", Nodes: make([]Node, 1)},
			level: 0,
			want:  "**Phase 1: Base (1 PR)**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderPhaseHeading(tt.phase, tt.level); got != tt.want {
				t.Errorf("RenderPhaseHeading() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYAMLString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Add model", "Add model"},
		{"", `""`},
		{"multi\nline", "multi line"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := YAMLString(tt.input); got != tt.want {
				t.Errorf("YAMLString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderYAMLBody_QuotesReferences(t *testing.T) {
	body := RenderYAMLBody([]Node{{ID: "1.1", Description: "x: y", Status: StatusInProgress, Plan: "#4", DependsOn: []string{"0.1"}}})
	for _, want := range []string{
		`  - id: "1.1"`,
		`    plan: "#4"`,
		`    pr: null`,
		`    depends_on: ["0.1"]`,
		`    status: in_progress`,
	} {
		if !strings.Contains(body, want+"\n") {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "description: x: y\n") {
		t.Errorf("description with colon was not quoted:\n%s", body)
	}
}
