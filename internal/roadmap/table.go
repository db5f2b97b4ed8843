package roadmap

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect identifies which table layout a roadmap table uses.
type Dialect int

const (
	// DialectNone means no roadmap table was found.
	DialectNone Dialect = iota
	// DialectLegacy is the four-column Step|Description|Status|PR layout.
	DialectLegacy
	// DialectCurrent is the five-column Step|Description|Status|Plan|PR layout.
	DialectCurrent
	// DialectMixed means the document contains tables of both layouts.
	DialectMixed
)

// String returns a human-readable dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectLegacy:
		return "legacy"
	case DialectCurrent:
		return "current"
	case DialectMixed:
		return "mixed"
	default:
		return "none"
	}
}

// Column headers of the two dialects, lower-cased.
var (
	legacyHeader  = []string{"step", "description", "status", "pr"}
	currentHeader = []string{"step", "description", "status", "plan", "pr"}
)

// CurrentHeaderLine and CurrentSeparatorLine are the canonical header rows
// written for five-column tables.
const (
	CurrentHeaderLine    = "| Step | Description | Status | Plan | PR |"
	CurrentSeparatorLine = "|------|-------------|--------|------|----|"
)

// Column indices of the five-column dialect.
const (
	ColStep = iota
	ColDescription
	ColStatus
	ColPlan
	ColPR
)

// legacyPlanRe matches a legacy PR cell that actually encodes an in-flight plan.
var legacyPlanRe = regexp.MustCompile(`(?i)^plan\s+(#?\d+|\S+)$`)

// nodeIDRe matches the shape of a node ID in the first column of a row.
var nodeIDRe = regexp.MustCompile(`^\d+[A-Za-z]?(?:\.\d+[A-Za-z]?)*$`)

// IsNodeID reports whether text looks like a roadmap node ID.
func IsNodeID(text string) bool {
	return nodeIDRe.MatchString(strings.TrimSpace(text))
}

// row is one data row of a roadmap table in either dialect. The two variants
// share one normalization step into the canonical Node shape.
type row interface {
	node() Node
	dialect() Dialect
}

type legacyRow struct {
	step, description, status, pr string
}

func (r legacyRow) node() Node {
	plan, pr := "", NormalizeRef(r.pr)
	if m := legacyPlanRe.FindStringSubmatch(pr); m != nil {
		plan, pr = m[1], ""
		if n := strings.TrimPrefix(plan, "#"); isDigits(n) {
			plan = n
		}
	}
	return Node{
		ID:          r.step,
		Description: r.description,
		Status:      ResolveStatus(r.status, plan, pr),
		Plan:        plan,
		PR:          pr,
	}
}

func (r legacyRow) dialect() Dialect { return DialectLegacy }

type currentRow struct {
	step, description, status, plan, pr string
}

func (r currentRow) node() Node {
	plan, pr := NormalizeRef(r.plan), NormalizeRef(r.pr)
	return Node{
		ID:          r.step,
		Description: r.description,
		Status:      ResolveStatus(r.status, plan, pr),
		Plan:        plan,
		PR:          pr,
	}
}

func (r currentRow) dialect() Dialect { return DialectCurrent }

// newRow builds the dialect variant for a set of cell texts.
func newRow(d Dialect, cells []string) (row, error) {
	switch d {
	case DialectLegacy:
		if len(cells) < len(legacyHeader) {
			return nil, fmt.Errorf("expected %d cells, got %d", len(legacyHeader), len(cells))
		}
		return legacyRow{step: cells[0], description: cells[1], status: cells[2], pr: cells[3]}, nil
	case DialectCurrent:
		if len(cells) < len(currentHeader) {
			return nil, fmt.Errorf("expected %d cells, got %d", len(currentHeader), len(cells))
		}
		return currentRow{step: cells[0], description: cells[1], status: cells[2], plan: cells[3], pr: cells[4]}, nil
	default:
		return nil, fmt.Errorf("unknown table dialect")
	}
}

// ParseRow converts the cell texts of one table row into a Node.
func ParseRow(d Dialect, cells []string) (Node, error) {
	r, err := newRow(d, cells)
	if err != nil {
		return Node{}, err
	}
	return r.node(), nil
}

// Cell is one cell of a table row: its unescaped text and the byte span of
// its raw content between the surrounding pipes, relative to the line.
type Cell struct {
	Text  string
	Start int
	End   int
}

// RowCells splits a markdown table line into cells. Escaped pipes ("\|")
// stay inside a cell. A line without a leading pipe yields no cells.
func RowCells(line string) []Cell {
	start := strings.Index(line, "|")
	if start < 0 || strings.TrimSpace(line[:start]) != "" {
		return nil
	}
	var cells []Cell
	cellStart := start + 1
	for i := cellStart; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '|':
			raw := line[cellStart:i]
			cells = append(cells, Cell{Text: unescapeCell(raw), Start: cellStart, End: i})
			cellStart = i + 1
		}
	}
	// Trailing text after the last pipe is a cell only when the row is not
	// closed with a pipe.
	if rest := line[cellStart:]; strings.TrimSpace(rest) != "" {
		cells = append(cells, Cell{Text: unescapeCell(rest), Start: cellStart, End: len(line)})
	}
	return cells
}

func cellTexts(cells []Cell) []string {
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.Text
	}
	return texts
}

func unescapeCell(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, `\|`, "|"))
}

// EscapeCell makes text safe to place inside a table cell.
func EscapeCell(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "|", `\|`)
}

// RefCell renders a plan or PR reference for a table cell.
func RefCell(ref string) string {
	if ref = NormalizeRef(ref); ref == "" {
		return "-"
	}
	return ref
}

// classifyHeader returns the dialect whose column headers match cells.
func classifyHeader(cells []string) Dialect {
	lower := make([]string, len(cells))
	for i, c := range cells {
		lower[i] = strings.ToLower(strings.TrimSpace(c))
	}
	switch {
	case equalStrings(lower, currentHeader):
		return DialectCurrent
	case equalStrings(lower, legacyHeader):
		return DialectLegacy
	default:
		return DialectNone
	}
}

var separatorCellRe = regexp.MustCompile(`^:?-+:?$`)

// isSeparator reports whether cells form a markdown header separator row.
func isSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCellRe.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Span is a half-open byte range [Start, End) of a document.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes in the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Table describes one roadmap table found in a document.
type Table struct {
	// Span covers every line of the table including the final newline.
	Span Span
	// Header is the span of the header row; Separator is empty when the
	// separator row is missing.
	Header    Span
	Separator Span
	Dialect   Dialect
	// Heading is the phase header line above the table, if any.
	Heading *Heading
	// RowIDs lists the step IDs of the data rows in order.
	RowIDs []string
}

// Key identifies the phase the table belongs to: its header when there is
// one, otherwise the prefix of its first step.
func (t Table) Key() (PhaseKey, bool) {
	if t.Heading != nil {
		return t.Heading.Key, true
	}
	if len(t.RowIDs) > 0 {
		return ParsePhaseKey(t.RowIDs[0])
	}
	return PhaseKey{}, false
}

// Heading is a phase header line found in the document text.
type Heading struct {
	Key  PhaseKey
	Name string
	// Level is the markdown heading level, or 0 for a bold-text header.
	Level int
	Line  Span
}

// line is one line of a document with its byte span (newline excluded).
type line struct {
	text  string
	start int
	end   int
}

// splitLines splits text into lines, remembering their offsets.
func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		idx := strings.IndexByte(text[start:], '\n')
		if idx < 0 {
			if start < len(text) {
				lines = append(lines, line{text: text[start:], start: start, end: len(text)})
			}
			break
		}
		lines = append(lines, line{text: text[start : start+idx], start: start, end: start + idx})
		start += idx + 1
	}
	return lines
}

// lineEnd returns the offset just past the newline ending l, or the end of
// the text when l is the last line.
func lineEnd(text string, l line) int {
	if l.end < len(text) {
		return l.end + 1
	}
	return l.end
}

func isTableLine(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "|")
}

func isFence(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// tableScan is the result of scanning a document for roadmap tables.
type tableScan struct {
	nodes    []Node
	tables   []Table
	headings []Heading
	warnings []string
}

// scanTables finds every roadmap table in text. Fenced code blocks are
// skipped so the YAML block is never mistaken for table content. Structural
// problems are recorded as warnings and never stop the scan.
func scanTables(text string) tableScan {
	var scan tableScan
	lines := splitLines(text)

	var heading *Heading
	headingUsed := false
	inFence := false

	// Headers without a table only matter when the document uses tables at
	// all; YAML-only documents keep phase headers purely as prose.
	var orphans []string
	flushHeading := func() {
		if heading != nil && !headingUsed {
			orphans = append(orphans,
				fmt.Sprintf("%s: no roadmap table found under header", PlaceholderName(heading.Key)))
		}
	}

	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if isFence(l.text) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if h, ok := matchPhaseHeading(l.text); ok {
			flushHeading()
			h.Line = Span{Start: l.start, End: lineEnd(text, l)}
			scan.headings = append(scan.headings, h)
			heading = &h
			headingUsed = false
			continue
		}

		if !isTableLine(l.text) {
			continue
		}

		j := i
		for j < len(lines) && isTableLine(lines[j].text) {
			j++
		}
		block := lines[i:j]
		i = j - 1

		table, nodes, warnings, ok := parseTableBlock(text, block, heading)
		scan.warnings = append(scan.warnings, warnings...)
		if len(warnings) > 0 || ok {
			headingUsed = true
		}
		if !ok {
			continue
		}
		scan.tables = append(scan.tables, table)
		scan.nodes = append(scan.nodes, nodes...)
	}

	flushHeading()
	if len(scan.tables) > 0 {
		scan.warnings = append(scan.warnings, orphans...)
	}
	return scan
}

// parseTableBlock interprets a run of table lines. ok is false when the
// block is not a roadmap table (an unrelated table in prose, or a roadmap
// table missing its header row).
func parseTableBlock(text string, block []line, heading *Heading) (Table, []Node, []string, bool) {
	var warnings []string
	label := func(fallbackID string) string {
		if heading != nil {
			return PlaceholderName(heading.Key)
		}
		if key, ok := ParsePhaseKey(fallbackID); ok {
			return PlaceholderName(key)
		}
		return "table"
	}

	headerCells := cellTexts(RowCells(block[0].text))
	dialect := classifyHeader(headerCells)
	if dialect == DialectNone {
		if len(headerCells) > 0 && IsNodeID(headerCells[0]) {
			warnings = append(warnings,
				fmt.Sprintf("%s: table is missing its header row; phase skipped", label(headerCells[0])))
		}
		return Table{}, nil, warnings, false
	}

	table := Table{
		Span: Span{
			Start: block[0].start,
			End:   lineEnd(text, block[len(block)-1]),
		},
		Header:  Span{Start: block[0].start, End: lineEnd(text, block[0])},
		Dialect: dialect,
		Heading: heading,
	}

	rowStart := 1
	if len(block) > 1 && isSeparator(cellTexts(RowCells(block[1].text))) {
		table.Separator = Span{Start: block[1].start, End: lineEnd(text, block[1])}
		rowStart = 2
	} else {
		warnings = append(warnings, fmt.Sprintf("%s: table is missing its separator row", label("")))
	}

	var nodes []Node
	for _, l := range block[rowStart:] {
		cells := cellTexts(RowCells(l.text))
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		r, err := newRow(dialect, cells)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: malformed row %q: %v", label(cells[0]), cells[0], err))
			continue
		}
		n := r.node()
		table.RowIDs = append(table.RowIDs, n.ID)
		nodes = append(nodes, n)
	}

	if len(nodes) == 0 {
		warnings = append(warnings, fmt.Sprintf("%s: table has no steps", label("")))
	}
	return table, nodes, warnings, true
}
