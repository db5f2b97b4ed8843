package mutate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// Update pairs a node ID with the update to apply to it.
type Update struct {
	NodeID string
	NodeUpdate
}

// edit replaces doc[start:end] with text.
type edit struct {
	start, end int
	text       string
}

func applyEdits(doc string, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		doc = doc[:e.start] + e.text + doc[e.end:]
	}
	return doc
}

// rowMatch is a table row located by node ID.
type rowMatch struct {
	start, end int // line span, newline excluded
	table      roadmap.Table
}

func rowPattern(id string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*\|[ \t]*` + regexp.QuoteMeta(id) + `[ \t]*\|.*$`)
}

// matchRows finds the data rows for id inside roadmap tables.
func matchRows(doc string, res roadmap.Result, id string) []rowMatch {
	var out []rowMatch
	for _, loc := range rowPattern(id).FindAllStringIndex(doc, -1) {
		for _, t := range res.Tables {
			if t.Span.Contains(loc[0]) && !t.Header.Contains(loc[0]) {
				out = append(out, rowMatch{start: loc[0], end: loc[1], table: t})
				break
			}
		}
	}
	return out
}

// UpdateNode applies upd to the node with the given ID and returns the new
// document. When the document has a YAML block its entry for the node is
// edited and the rendered table row, if any, is kept in step; otherwise the
// single matching table row is edited. Only the status, plan and PR values
// of that node change. A legacy four-column table holding the row is first
// upgraded to five columns.
func UpdateNode(doc, id string, upd NodeUpdate) (string, error) {
	if err := upd.Validate(); err != nil {
		return doc, withNode(err, id)
	}

	res := roadmap.ParseStructure(doc)
	if !res.Found() {
		return doc, errors.NewMutationError("document has no roadmap", errors.ErrRoadmapNotFound).WithNodeID(id)
	}

	rows := matchRows(doc, res, id)
	if err := checkMatches(res, rows, id); err != nil {
		return doc, err
	}

	if len(rows) == 1 && rows[0].table.Dialect == roadmap.DialectLegacy {
		doc = upgradeTable(doc, rows[0].table)
		res = roadmap.ParseStructure(doc)
		rows = matchRows(doc, res, id)
	}

	var current roadmap.Node
	if res.HasYAML {
		for _, n := range res.YAML.Nodes {
			if n.ID == id {
				current = n
				break
			}
		}
	} else {
		n, err := rowNode(doc, rows[0])
		if err != nil {
			return doc, errors.NewMutationError("cannot read row", err).WithNodeID(id)
		}
		current = n
	}

	next, err := upd.Apply(current)
	if err != nil {
		return doc, err
	}

	var rowChanges []edit
	if len(rows) == 1 {
		rowChanges = rowEdits(doc, rows[0], next, upd)
	}
	if !res.HasYAML {
		return applyEdits(doc, rowChanges), nil
	}

	if entry := res.YAML.Entry(id)[0]; !entry.Flow {
		edits := append(yamlEdits(doc, entry, next, upd), rowChanges...)
		if out := applyEdits(doc, edits); yamlStepMatches(out, id, next) == nil {
			return out, nil
		}
	}

	// The entry has no key lines to edit in place: go through the YAML tree.
	out := applyEdits(doc, rowChanges)
	block, err := roadmap.FindYAMLBlock(out)
	if err != nil || block == nil {
		return doc, errors.NewMutationError("roadmap block unreadable after row edit", errors.Join(errors.ErrOperationFailed, err)).WithNodeID(id)
	}
	out, err = editYAMLTree(out, block, id, next, upd)
	if err != nil {
		return doc, err
	}
	if err := yamlStepMatches(out, id, next); err != nil {
		return doc, errors.NewMutationError("roadmap block edit did not take", errors.Join(errors.ErrOperationFailed, err)).WithNodeID(id)
	}
	return out, nil
}

func withNode(err error, id string) error {
	var me *errors.MutationError
	if errors.As(err, &me) {
		return me.WithNodeID(id)
	}
	return err
}

// checkMatches enforces that exactly one location holds the node.
func checkMatches(res roadmap.Result, rows []rowMatch, id string) error {
	if len(rows) > 1 {
		return errors.NewMutationError(fmt.Sprintf("%d table rows match", len(rows)), errors.ErrAmbiguousNode).WithNodeID(id)
	}
	if res.HasYAML {
		switch entries := res.YAML.Entry(id); len(entries) {
		case 0:
			return errors.NewMutationError("no step with this id in roadmap block", errors.ErrNodeNotFound).WithNodeID(id)
		case 1:
			return nil
		default:
			return errors.NewMutationError(fmt.Sprintf("%d roadmap block entries match", len(entries)), errors.ErrAmbiguousNode).WithNodeID(id)
		}
	}
	if len(rows) == 0 {
		return errors.NewMutationError("no table row with this id", errors.ErrNodeNotFound).WithNodeID(id)
	}
	return nil
}

func rowNode(doc string, m rowMatch) (roadmap.Node, error) {
	cells := roadmap.RowCells(doc[m.start:m.end])
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.Text
	}
	return roadmap.ParseRow(m.table.Dialect, texts)
}

// statusAffected reports whether the update can change the stored status.
func (u NodeUpdate) statusAffected() bool {
	return !u.Status.IsPreserve() || !u.Plan.IsPreserve() || !u.PR.IsPreserve()
}

// statusText picks the text for a status cell or field. An inferred status
// stays a placeholder when the placeholder already resolves to it, so a
// surgical edit never introduces an override the caller did not ask for.
func statusText(existing string, next roadmap.Node, upd NodeUpdate) (string, bool) {
	if !upd.statusAffected() {
		return "", false
	}
	if !upd.statusExplicit() {
		if _, explicit := roadmap.ParseStatus(existing); !explicit &&
			roadmap.ResolveStatus("", next.Plan, next.PR) == next.Status {
			return "", false
		}
	}
	return string(next.Status), true
}

// rowEdits rewrites the status, plan and PR cells of one five-column row.
func rowEdits(doc string, m rowMatch, next roadmap.Node, upd NodeUpdate) []edit {
	cells := roadmap.RowCells(doc[m.start:m.end])
	if len(cells) <= roadmap.ColPR {
		return nil
	}

	var edits []edit
	replace := func(col int, text string) {
		c := cells[col]
		if c.Text == text {
			return
		}
		edits = append(edits, edit{
			start: m.start + c.Start,
			end:   m.start + c.End,
			text:  " " + roadmap.EscapeCell(text) + " ",
		})
	}

	if text, ok := statusText(cells[roadmap.ColStatus].Text, next, upd); ok {
		replace(roadmap.ColStatus, text)
	}
	if !upd.Plan.IsPreserve() {
		replace(roadmap.ColPlan, roadmap.RefCell(next.Plan))
	}
	if !upd.PR.IsPreserve() {
		replace(roadmap.ColPR, roadmap.RefCell(next.PR))
	}
	return edits
}

// yamlKeyRe matches a status, plan or pr key line of a YAML step entry.
var yamlKeyRe = regexp.MustCompile(`(?m)^([ \t]*(?:-[ \t]+)?)(status|plan|pr):([^\n]*)$`)

// yamlEdits rewrites the status, plan and pr fields of one YAML entry,
// appending any field the entry lacks.
func yamlEdits(doc string, entry roadmap.YAMLEntry, next roadmap.Node, upd NodeUpdate) []edit {
	text := doc[entry.Span.Start:entry.Span.End]

	type valueSpan struct {
		start, end int
		value      string
	}
	found := make(map[string]valueSpan)
	for _, m := range yamlKeyRe.FindAllStringSubmatchIndex(text, -1) {
		prefix := text[m[2]:m[3]]
		if len(prefix) != entry.KeyIndent {
			continue
		}
		key := text[m[4]:m[5]]
		if _, dup := found[key]; dup {
			continue
		}
		found[key] = valueSpan{
			start: entry.Span.Start + m[6],
			end:   entry.Span.Start + m[7],
			value: strings.Trim(strings.TrimSpace(text[m[6]:m[7]]), `"'`),
		}
	}

	var edits []edit
	var inserts strings.Builder
	write := func(key, value string) {
		if vs, ok := found[key]; ok {
			if vs.value == strings.Trim(value, `"`) {
				return
			}
			edits = append(edits, edit{start: vs.start, end: vs.end, text: " " + value})
			return
		}
		fmt.Fprintf(&inserts, "%s%s: %s\n", strings.Repeat(" ", entry.KeyIndent), key, value)
	}

	existingStatus := ""
	if vs, ok := found["status"]; ok {
		existingStatus = vs.value
	}
	if text, ok := statusText(existingStatus, next, upd); ok {
		write("status", text)
	}
	if !upd.Plan.IsPreserve() {
		write("plan", roadmap.YAMLRef(next.Plan))
	}
	if !upd.PR.IsPreserve() {
		write("pr", roadmap.YAMLRef(next.PR))
	}

	if inserts.Len() > 0 {
		pos := entry.Span.Start + entryInsertOffset(text)
		edits = append(edits, edit{start: pos, end: pos, text: inserts.String()})
	}
	return edits
}

// entryInsertOffset returns the offset just past the last non-blank line of
// an entry.
func entryInsertOffset(text string) int {
	idx := len(strings.TrimRight(text, " \t\r\n"))
	if nl := strings.IndexByte(text[idx:], '\n'); nl >= 0 {
		return idx + nl + 1
	}
	return len(text)
}

// upgradeTable rewrites a legacy four-column table as a five-column one.
// Legacy "plan #N" PR cells move into the Plan column; every other cell
// keeps its text.
func upgradeTable(doc string, t roadmap.Table) string {
	block := doc[t.Span.Start:t.Span.End]
	lines := strings.SplitAfter(block, "\n")

	var b strings.Builder
	for i, l := range lines {
		if l == "" {
			continue
		}
		body := strings.TrimSuffix(l, "\n")
		nl := l[len(body):]
		switch {
		case i == 0:
			b.WriteString(roadmap.CurrentHeaderLine + nl)
		case i == 1 && t.Separator.Len() > 0:
			b.WriteString(roadmap.CurrentSeparatorLine + nl)
		default:
			b.WriteString(upgradeRow(body) + nl)
		}
	}
	return doc[:t.Span.Start] + b.String() + doc[t.Span.End:]
}

func upgradeRow(line string) string {
	cells := roadmap.RowCells(line)
	if len(cells) < 4 {
		return line
	}
	raw := func(i int) string { return strings.TrimSpace(line[cells[i].Start:cells[i].End]) }
	n, err := roadmap.ParseRow(roadmap.DialectLegacy, []string{cells[0].Text, cells[1].Text, cells[2].Text, cells[3].Text})
	if err != nil {
		return line
	}
	status := raw(2)
	if status == "" {
		status = "-"
	}
	return fmt.Sprintf("| %s | %s | %s | %s | %s |",
		raw(0), raw(1), status, roadmap.EscapeCell(roadmap.RefCell(n.Plan)), roadmap.EscapeCell(roadmap.RefCell(n.PR)))
}
