// Package validate runs semantic consistency checks over a parsed roadmap.
//
// Validation has three outcomes. An error means validation could not be
// attempted at all (the document holds no roadmap). Otherwise a Result is
// returned whose Passed flag says whether every check held; failed checks
// are data, never errors.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/graph"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// Check names.
const (
	CheckUniqueIDs         = "unique_ids"
	CheckDependencies      = "dependencies_resolve"
	CheckAcyclic           = "acyclic"
	CheckDoneHasPR         = "done_has_pr"
	CheckStatusMatchesRefs = "status_matches_refs"
	CheckPhasesSequential  = "phases_sequential"
	CheckTableInSync       = "table_in_sync"
)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	RelatedIDs []string `json:"related_ids,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Result is the outcome of validating a roadmap that could be read.
type Result struct {
	Passed   bool          `json:"passed"`
	Checks   []CheckResult `json:"checks"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Failed returns the checks that did not pass.
func (r *Result) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Check returns the result of the named check.
func (r *Result) Check(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Validate parses doc and checks it. It returns an error only when the
// document contains no roadmap.
func Validate(doc string) (*Result, error) {
	res := roadmap.Parse(doc)
	if !res.Found() {
		return nil, errors.NewNotFoundError("roadmap", "document").WithCause(errors.ErrRoadmapNotFound)
	}
	return Parsed(res), nil
}

// Parsed checks an already parsed roadmap. Structural warnings are carried
// over so callers see both kinds of problems.
func Parsed(res roadmap.Result) *Result {
	nodes := res.Nodes()
	result := &Result{Warnings: slices.Clone(res.Warnings)}
	result.Checks = []CheckResult{
		checkUniqueIDs(nodes),
		checkDependencies(nodes),
		checkAcyclic(nodes),
		checkDoneHasPR(nodes),
		checkStatusMatchesRefs(nodes),
		checkPhasesSequential(res),
		checkTableInSync(res),
	}
	result.Passed = true
	for _, c := range result.Checks {
		if !c.Passed {
			result.Passed = false
		}
	}
	return result
}

func pass(name, message string) CheckResult {
	return CheckResult{Name: name, Passed: true, Message: message}
}

func fail(name, message string, details, ids []string) CheckResult {
	return CheckResult{Name: name, Message: message, Details: details, RelatedIDs: ids}
}

func checkUniqueIDs(nodes []roadmap.Node) CheckResult {
	seen := make(map[string]int)
	var dups []string
	for _, n := range nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
	}
	if len(dups) == 0 {
		return pass(CheckUniqueIDs, fmt.Sprintf("%d step ids are unique", len(nodes)))
	}
	r := fail(CheckUniqueIDs, fmt.Sprintf("%d step ids appear more than once", len(dups)), nil, dups)
	for _, id := range dups {
		r.Details = append(r.Details, fmt.Sprintf("step %s appears %d times", id, seen[id]))
	}
	r.Suggestion = "Renumber the duplicated steps"
	return r
}

func checkDependencies(nodes []roadmap.Node) CheckResult {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	var details, ids []string
	for _, n := range nodes {
		for _, d := range n.DependsOn {
			if !known[d] {
				details = append(details, fmt.Sprintf("step %s depends on unknown step %s", n.ID, d))
				ids = append(ids, n.ID)
			}
		}
	}
	if len(details) == 0 {
		return pass(CheckDependencies, "all dependencies refer to existing steps")
	}
	r := fail(CheckDependencies, fmt.Sprintf("%d dependencies refer to unknown steps", len(details)), details, ids)
	r.Suggestion = "Fix or remove the dangling depends_on entries; those steps can never become unblocked"
	return r
}

func checkAcyclic(nodes []roadmap.Node) CheckResult {
	deps := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		deps[n.ID] = append(deps[n.ID], n.DependsOn...)
	}
	cycle := graph.FindCycle(nodes, deps)
	if cycle == nil {
		return pass(CheckAcyclic, "dependencies form a DAG")
	}
	r := fail(CheckAcyclic, "dependency cycle: "+strings.Join(cycle, " -> "), nil, cycle)
	r.Suggestion = "Remove one of the dependencies to break the cycle"
	return r
}

func checkDoneHasPR(nodes []roadmap.Node) CheckResult {
	var ids []string
	for _, n := range nodes {
		if n.Status == roadmap.StatusDone && n.PR == "" {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return pass(CheckDoneHasPR, "every done step has a PR")
	}
	r := fail(CheckDoneHasPR, fmt.Sprintf("%d done steps have no PR", len(ids)), nil, ids)
	for _, id := range ids {
		r.Details = append(r.Details, fmt.Sprintf("step %s is done without a PR reference", id))
	}
	r.Suggestion = "Record the PR that landed each step"
	return r
}

// checkStatusMatchesRefs flags statuses the references contradict. The
// overrides blocked, skipped and pending are legitimate whatever the
// references say.
func checkStatusMatchesRefs(nodes []roadmap.Node) CheckResult {
	var details, ids []string
	for _, n := range nodes {
		var problem string
		switch n.Status {
		case roadmap.StatusInProgress:
			if n.Plan == "" && n.PR == "" {
				problem = "is in_progress with neither a plan nor a PR"
			}
		case roadmap.StatusPlanning:
			if n.PR != "" {
				problem = fmt.Sprintf("is planning but already has PR %s", n.PR)
			}
		case roadmap.StatusDone:
			if n.Plan != "" {
				problem = fmt.Sprintf("is done but still references plan %s", n.Plan)
			}
		}
		if problem != "" {
			details = append(details, fmt.Sprintf("step %s %s", n.ID, problem))
			ids = append(ids, n.ID)
		}
	}
	if len(details) == 0 {
		return pass(CheckStatusMatchesRefs, "statuses agree with plan and PR references")
	}
	r := fail(CheckStatusMatchesRefs, fmt.Sprintf("%d steps have stale statuses", len(details)), details, ids)
	r.Suggestion = "Update the steps through the update command so status is recomputed"
	return r
}

// checkPhasesSequential requires phase numbers to run 1, 2, 3... with no
// gaps, and each phase to be written once. Letter sub-phases share their
// number.
func checkPhasesSequential(res roadmap.Result) CheckResult {
	var details []string

	var numbers []int
	for _, p := range res.Phases {
		if len(numbers) == 0 || numbers[len(numbers)-1] != p.Key.Number {
			numbers = append(numbers, p.Key.Number)
		}
	}
	expect := 1
	for _, n := range numbers {
		switch {
		case n == 0:
			details = append(details, "some steps have ids without a phase number")
		case n != expect:
			details = append(details, fmt.Sprintf("expected phase %d, found phase %d", expect, n))
			expect = n + 1
		default:
			expect++
		}
	}

	seen := make(map[roadmap.PhaseKey]bool)
	for _, t := range res.Tables {
		key, ok := t.Key()
		if !ok {
			continue
		}
		if seen[key] {
			details = append(details, fmt.Sprintf("phase %s has more than one table", key))
		}
		seen[key] = true
	}

	if len(details) == 0 {
		return pass(CheckPhasesSequential, fmt.Sprintf("%d phases are sequential", len(res.Phases)))
	}
	r := fail(CheckPhasesSequential, "phase numbering is not sequential", details, nil)
	r.Suggestion = "Renumber phases so they run 1, 2, 3 without gaps"
	return r
}

// checkTableInSync compares the rendered tables with the YAML block when a
// document carries both.
func checkTableInSync(res roadmap.Result) CheckResult {
	if !res.HasYAML || !res.HasTable {
		return pass(CheckTableInSync, "no rendered table to compare")
	}

	rows := make(map[string]roadmap.Node)
	for _, n := range roadmap.Flatten(res.TablePhases) {
		if _, dup := rows[n.ID]; !dup {
			rows[n.ID] = n
		}
	}

	var details, ids []string
	seen := make(map[string]bool)
	for _, n := range res.Nodes() {
		seen[n.ID] = true
		row, ok := rows[n.ID]
		switch {
		case !ok:
			details = append(details, fmt.Sprintf("step %s is missing from the table", n.ID))
		case row.Status != n.Status:
			details = append(details, fmt.Sprintf("step %s: table status %s, roadmap block %s", n.ID, row.Status, n.Status))
		case row.Plan != n.Plan || row.PR != n.PR:
			details = append(details, fmt.Sprintf("step %s: table refs plan=%q pr=%q, roadmap block plan=%q pr=%q",
				n.ID, row.Plan, row.PR, n.Plan, n.PR))
		case row.Description != n.Description:
			details = append(details, fmt.Sprintf("step %s: descriptions differ", n.ID))
		default:
			continue
		}
		ids = append(ids, n.ID)
	}
	for _, n := range roadmap.Flatten(res.TablePhases) {
		if !seen[n.ID] {
			details = append(details, fmt.Sprintf("table step %s is not in the roadmap block", n.ID))
			ids = append(ids, n.ID)
			seen[n.ID] = true
		}
	}

	if len(details) == 0 {
		return pass(CheckTableInSync, "table matches the roadmap block")
	}
	r := fail(CheckTableInSync, fmt.Sprintf("table disagrees with the roadmap block on %d steps", len(ids)), details, ids)
	r.Suggestion = "Run rewrite to regenerate the table from the roadmap block"
	return r
}
