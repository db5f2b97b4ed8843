package mutate

import (
	"sort"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/graph"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// Transform turns the current phases into the phases to write. It receives
// a private copy and may modify it freely.
type Transform func(phases []roadmap.Phase) ([]roadmap.Phase, error)

// RewriteOptions configures a full-body rewrite.
type RewriteOptions struct {
	// Transform is applied to the parsed phases. Nil keeps them unchanged,
	// which still normalizes the document (legacy tables become
	// five-column, statuses become explicit).
	Transform Transform
	// CollapseCompleted wraps fully terminal phases in <details>.
	CollapseCompleted bool
	// Sections maps prose section headings to replacement bodies.
	Sections map[string]string
}

// Rewrite regenerates the structured section of doc: the YAML block is
// re-rendered in place and each phase table, with its header, is replaced
// by a freshly rendered five-column table. Prose around and between the
// tables is kept. The transformed phases must still form a valid graph.
// This path gives no row-level isolation; concurrent edits made to the
// backing document after doc was read are lost when the result is written.
func Rewrite(doc string, opts RewriteOptions) (string, error) {
	res := roadmap.Parse(doc)
	if !res.Found() {
		return doc, errors.NewMutationError("document has no roadmap", errors.ErrRoadmapNotFound)
	}

	phases := roadmap.ClonePhases(res.Phases)
	if opts.Transform != nil {
		var err error
		if phases, err = opts.Transform(phases); err != nil {
			return doc, errors.Wrap(err, "transform roadmap")
		}
	}
	if _, err := graph.Build(phases); err != nil {
		return doc, errors.Wrap(err, "rewritten roadmap")
	}

	var edits []edit
	if res.HasYAML {
		edits = append(edits, edit{
			start: res.YAML.Span.Start,
			end:   res.YAML.Span.End,
			text:  roadmap.RenderYAMLBlock(roadmap.Flatten(phases)),
		})
	}
	tableEdits, err := phaseTableEdits(doc, res, phases, roadmap.TableOptions{
		HeadingLevel:      res.HeadingLevel(),
		CollapseCompleted: opts.CollapseCompleted,
	})
	if err != nil {
		return doc, err
	}
	edits = append(edits, tableEdits...)
	out := applyEdits(doc, edits)

	headings := make([]string, 0, len(opts.Sections))
	for h := range opts.Sections {
		headings = append(headings, h)
	}
	sort.Strings(headings)
	for _, h := range headings {
		var err error
		if out, err = ReplaceSection(out, h, opts.Sections[h]); err != nil {
			return doc, err
		}
	}
	return out, nil
}

// phaseTableEdits replaces every existing table with the rendered table of
// its phase. A table whose phase is gone is removed, a second table for the
// same phase is folded into the first, and a phase with no table is
// inserted before the first table of a later phase or after the last table.
func phaseTableEdits(doc string, res roadmap.Result, phases []roadmap.Phase, opts roadmap.TableOptions) ([]edit, error) {
	if len(res.Tables) == 0 {
		return nil, nil
	}

	byKey := make(map[roadmap.PhaseKey]roadmap.Phase, len(phases))
	for _, p := range phases {
		byKey[p.Key] = p
	}
	render := func(p roadmap.Phase) string {
		return roadmap.RenderTables([]roadmap.Phase{p}, opts)
	}

	type placed struct {
		key   roadmap.PhaseKey
		block roadmap.Span
	}
	var blocks []placed
	var edits []edit
	written := make(map[roadmap.PhaseKey]bool)
	for i, t := range res.Tables {
		block := res.TableBlock(doc, i)
		if res.HasYAML && spansOverlap(block, res.YAML.Span) {
			return nil, errors.NewMutationError("roadmap block sits inside the phase tables", errors.ErrOperationFailed)
		}
		key, ok := t.Key()
		if !ok {
			continue
		}
		blocks = append(blocks, placed{key: key, block: block})

		text := ""
		if p, exists := byKey[key]; exists && !written[key] {
			text = render(p)
			written[key] = true
		}
		edits = append(edits, edit{start: block.Start, end: block.End, text: text})
	}
	if len(blocks) == 0 {
		return edits, nil
	}

	last := blocks[len(blocks)-1].block.End
	var positions []int
	inserts := make(map[int]string)
	for _, p := range phases {
		if written[p.Key] {
			continue
		}
		pos, text := last, "\n"+render(p)
		for _, b := range blocks {
			if p.Key.Compare(b.key) < 0 {
				pos, text = b.block.Start, render(p)+"\n"
				break
			}
		}
		if _, seen := inserts[pos]; !seen {
			positions = append(positions, pos)
		}
		inserts[pos] += text
	}
	for _, pos := range positions {
		edits = append(edits, edit{start: pos, end: pos, text: inserts[pos]})
	}
	return edits, nil
}

func spansOverlap(a, b roadmap.Span) bool {
	return a.Start < b.End && b.Start < a.End
}

// ApplyUpdates returns a Transform applying every update to its node.
// Updates for unknown nodes fail the transform.
func ApplyUpdates(updates []Update) Transform {
	return func(phases []roadmap.Phase) ([]roadmap.Phase, error) {
		for _, u := range updates {
			found := false
			for pi := range phases {
				for ni := range phases[pi].Nodes {
					if phases[pi].Nodes[ni].ID != u.NodeID {
						continue
					}
					next, err := u.Apply(phases[pi].Nodes[ni])
					if err != nil {
						return nil, err
					}
					phases[pi].Nodes[ni] = next
					found = true
				}
			}
			if !found {
				return nil, errors.NewMutationError("update for unknown step", errors.ErrNodeNotFound).
					WithNodeID(u.NodeID)
			}
		}
		return phases, nil
	}
}
