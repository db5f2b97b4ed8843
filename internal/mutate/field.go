// Package mutate edits roadmap documents. Two strategies share one set of
// field semantics:
//
//   - UpdateNode is surgical: it rewrites the status, plan and PR of exactly
//     one node in place and leaves every other byte of the document alone.
//   - Rewrite regenerates the whole structured section from a transformed
//     phase list, optionally replacing prose sections too. It offers no
//     row-level isolation.
package mutate

import (
	"fmt"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

type fieldMode int

const (
	modePreserve fieldMode = iota
	modeClear
	modeSet
)

// Field is a three-state update to one node field. The zero value preserves
// whatever the document already holds.
type Field struct {
	mode  fieldMode
	value string
}

// Preserve leaves the field untouched.
func Preserve() Field { return Field{} }

// Clear empties the field.
func Clear() Field { return Field{mode: modeClear} }

// Set assigns v. Set("") is the same as Clear.
func Set(v string) Field {
	if roadmap.NormalizeRef(v) == "" {
		return Clear()
	}
	return Field{mode: modeSet, value: v}
}

// IsPreserve reports whether the field is left untouched.
func (f Field) IsPreserve() bool { return f.mode == modePreserve }

// IsClear reports whether the field is emptied.
func (f Field) IsClear() bool { return f.mode == modeClear }

// Value returns the assigned value and whether the field is set.
func (f Field) Value() (string, bool) {
	return f.value, f.mode == modeSet
}

func (f Field) apply(current string) string {
	switch f.mode {
	case modeClear:
		return ""
	case modeSet:
		return roadmap.NormalizeRef(f.value)
	default:
		return current
	}
}

// String describes the field for logs.
func (f Field) String() string {
	switch f.mode {
	case modeClear:
		return "clear"
	case modeSet:
		return fmt.Sprintf("set(%s)", f.value)
	default:
		return "preserve"
	}
}

// NodeUpdate addresses the mutable fields of one node.
type NodeUpdate struct {
	Status Field
	Plan   Field
	PR     Field
}

// IsEmpty reports whether the update touches nothing.
func (u NodeUpdate) IsEmpty() bool {
	return u.Status.IsPreserve() && u.Plan.IsPreserve() && u.PR.IsPreserve()
}

// Validate checks the update on its own, before any document is read.
// Setting a PR without saying what happens to the plan is rejected: the
// PR changes what the plan reference means.
func (u NodeUpdate) Validate() error {
	if !u.PR.IsPreserve() && u.Plan.IsPreserve() {
		return errors.NewMutationError("pr changed without addressing plan", errors.ErrPlanNotAddressed).
			WithField("pr")
	}
	if v, ok := u.Status.Value(); ok {
		if _, valid := roadmap.ParseStatus(v); !valid {
			return errors.NewMutationError(fmt.Sprintf("unknown status %q", v), errors.ErrInvalidStatus).
				WithField("status")
		}
	}
	return nil
}

// Apply returns current with the update applied. The status is the set
// value when one is given; otherwise it is recomputed from the resulting
// references when plan or PR is addressed or the status is cleared, and
// preserved in every other case.
func (u NodeUpdate) Apply(current roadmap.Node) (roadmap.Node, error) {
	if err := u.Validate(); err != nil {
		var me *errors.MutationError
		if errors.As(err, &me) {
			return current, me.WithNodeID(current.ID)
		}
		return current, err
	}

	next := current.Clone()
	next.Plan = u.Plan.apply(current.Plan)
	next.PR = u.PR.apply(current.PR)

	switch {
	case !u.Status.IsPreserve() && !u.Status.IsClear():
		v, _ := u.Status.Value()
		next.Status, _ = roadmap.ParseStatus(v)
	case u.Status.IsClear() || !u.Plan.IsPreserve() || !u.PR.IsPreserve():
		next.Status = roadmap.ResolveStatus("", next.Plan, next.PR)
	}
	return next, nil
}

// statusExplicit reports whether the update pins the status.
func (u NodeUpdate) statusExplicit() bool {
	_, ok := u.Status.Value()
	return ok
}

// String describes the update for logs.
func (u NodeUpdate) String() string {
	return fmt.Sprintf("status=%s plan=%s pr=%s", u.Status, u.Plan, u.PR)
}
