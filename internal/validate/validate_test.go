package validate

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

const header = "| Step | Description | Status | Plan | PR |\n|------|-------------|--------|------|----|\n"

func phase(heading string, rows ...string) string {
	return heading + "\n\n" + header + strings.Join(rows, "\n") + "\n\n"
}

var validDoc = phase("### Phase 1: Foundation (2 PR)",
	"| 1.1 | Model | done | - | #1 |",
	"| 1.2 | Parser | - | #5 | - |",
) + phase("### Phase 2: Graph (1 PR)",
	"| 2.1 | Graph | - | - | - |",
)

func yamlDoc(steps string) string {
	return "<!-- roadmap:steps -->\n```yaml\nschema_version: \"2\"\nsteps:\n" + steps + "```\n<!-- /roadmap:steps -->\n"
}

func TestValidate_Passes(t *testing.T) {
	result, err := Validate(validDoc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.Passed {
		t.Errorf("Validate() Passed = false, failed checks: %+v", result.Failed())
	}
	if len(result.Checks) != 7 {
		t.Errorf("len(Checks) = %d, want 7", len(result.Checks))
	}
}

func TestValidate_NoRoadmap(t *testing.T) {
	_, err := Validate("# Notes\n\nnothing here\n")
	if !errors.Is(err, errors.ErrRoadmapNotFound) {
		t.Errorf("Validate() error = %v, want ErrRoadmapNotFound", err)
	}
}

func TestValidate_FailingChecks(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantCheck string
		wantIDs   []string
	}{
		{
			name: "done without PR",
			doc: phase("### Phase 1: Foundation (1 PR)",
				"| 1.1 | Model | done | - | - |",
			),
			wantCheck: CheckDoneHasPR,
			wantIDs:   []string{"1.1"},
		},
		{
			name: "duplicate ids",
			doc: phase("### Phase 1: Foundation (2 PR)",
				"| 1.1 | Model | - | - | - |",
				"| 1.1 | Again | - | - | - |",
			),
			wantCheck: CheckUniqueIDs,
			wantIDs:   []string{"1.1"},
		},
		{
			name: "in progress without references",
			doc: phase("### Phase 1: Foundation (1 PR)",
				"| 1.1 | Model | in_progress | - | - |",
			),
			wantCheck: CheckStatusMatchesRefs,
			wantIDs:   []string{"1.1"},
		},
		{
			name: "done with lingering plan",
			doc: phase("### Phase 1: Foundation (1 PR)",
				"| 1.1 | Model | done | #4 | #9 |",
			),
			wantCheck: CheckStatusMatchesRefs,
			wantIDs:   []string{"1.1"},
		},
		{
			name: "phase gap",
			doc: phase("### Phase 1: Foundation (1 PR)",
				"| 1.1 | Model | - | - | - |",
			) + phase("### Phase 3: Later (1 PR)",
				"| 3.1 | Later | - | - | - |",
			),
			wantCheck: CheckPhasesSequential,
		},
		{
			name: "unknown dependency",
			doc: yamlDoc(`  - id: "1.1"
    description: Model
    status: pending
    depends_on: ["9.9"]
`),
			wantCheck: CheckDependencies,
			wantIDs:   []string{"1.1"},
		},
		{
			name: "cycle",
			doc: yamlDoc(`  - id: "1.1"
    description: Model
    status: pending
    depends_on: ["1.2"]
  - id: "1.2"
    description: Parser
    status: pending
    depends_on: ["1.1"]
`),
			wantCheck: CheckAcyclic,
		},
		{
			name: "table out of sync",
			doc: yamlDoc(`  - id: "1.1"
    description: Model
    status: done
    pr: "#3"
    depends_on: []
  - id: "1.2"
    description: Parser
    status: pending
    depends_on: ["1.1"]
`) + "\n" + phase("### Phase 1: Foundation (2 PR)",
				"| 1.1 | Model | done | - | #3 |",
				"| 1.2 | Parser | in_progress | #8 | - |",
			),
			wantCheck: CheckTableInSync,
			wantIDs:   []string{"1.2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(tt.doc)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.Passed {
				t.Fatal("Validate() Passed = true, want false")
			}
			check, ok := result.Check(tt.wantCheck)
			if !ok {
				t.Fatalf("check %s missing", tt.wantCheck)
			}
			if check.Passed {
				t.Errorf("check %s passed, want failure", tt.wantCheck)
			}
			if check.Suggestion == "" {
				t.Errorf("check %s has no suggestion", tt.wantCheck)
			}
			if tt.wantIDs != nil && strings.Join(check.RelatedIDs, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("RelatedIDs = %v, want %v", check.RelatedIDs, tt.wantIDs)
			}
			for _, c := range result.Failed() {
				if c.Name != tt.wantCheck {
					t.Errorf("unexpected failure %s: %s %v", c.Name, c.Message, c.Details)
				}
			}
		})
	}
}

func TestValidate_OverridesAreNotStale(t *testing.T) {
	doc := phase("### Phase 1: Foundation (3 PR)",
		"| 1.1 | Model | blocked | #2 | - |",
		"| 1.2 | Parser | skipped | - | - |",
		"| 1.3 | Graph | pending | #7 | - |",
	)
	result, err := Validate(doc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if check, _ := result.Check(CheckStatusMatchesRefs); !check.Passed {
		t.Errorf("status_matches_refs failed: %v", check.Details)
	}
}

func TestValidate_CarriesWarnings(t *testing.T) {
	doc := validDoc + "### Phase 3: Empty\n\nNo table yet.\n"
	result, err := Validate(doc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("Warnings empty, want the orphan header warning")
	}
}
