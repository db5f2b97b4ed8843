package roadmap

import "strings"

// placeholderStatus is written in a status cell that carries no override.
const placeholderStatus = "-"

// ParseStatus normalizes status text from a table cell or YAML field.
// It accepts the canonical values plus "in-progress" and "in progress".
// The placeholder "-" and empty text yield ok=false.
func ParseStatus(text string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "" || s == "_" {
		return "", false
	}
	status := Status(s)
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// NormalizeRef cleans a plan or PR reference. Placeholders ("-", "none",
// "null") become the empty string.
func NormalizeRef(text string) string {
	ref := strings.TrimSpace(text)
	switch strings.ToLower(ref) {
	case "", "-", "none", "null", "~":
		return ""
	}
	return ref
}

// ResolveStatus picks the canonical status for a node.
//
// Tier 1: an explicit canonical status always wins, even when it contradicts
// the references. Tier 2 applies only when the explicit value is empty, the
// placeholder, or unrecognized: a PR or plan reference means in_progress,
// otherwise pending. A PR reference alone never implies done; a caller marks
// done explicitly once the merge is confirmed.
func ResolveStatus(explicit, plan, pr string) Status {
	if status, ok := ParseStatus(explicit); ok {
		return status
	}
	switch {
	case NormalizeRef(pr) != "":
		return StatusInProgress
	case NormalizeRef(plan) != "":
		return StatusInProgress
	default:
		return StatusPending
	}
}
