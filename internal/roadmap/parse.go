package roadmap

import (
	"fmt"
	"strings"
)

// Source identifies which encoding supplied a parse result's phases.
type Source int

const (
	// SourceNone means the document holds no roadmap.
	SourceNone Source = iota
	// SourceTable means the phases came from markdown tables.
	SourceTable
	// SourceYAML means the phases came from the YAML block.
	SourceYAML
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceTable:
		return "table"
	case SourceYAML:
		return "yaml"
	default:
		return "none"
	}
}

// Result is the outcome of parsing a document. Parsing never fails: problems
// are reported as Warnings next to whatever could be read.
type Result struct {
	// Phases is the authoritative view: the YAML block when present and
	// readable, otherwise the tables.
	Phases   []Phase
	Warnings []string
	Source   Source
	Dialect  Dialect
	HasYAML  bool
	HasTable bool

	// TablePhases is the view rendered by the tables, kept separately so
	// callers can compare it with the YAML block.
	TablePhases []Phase
	Tables      []Table
	Headings    []Heading
	YAML        *YAMLBlock
}

// Found reports whether the document contains a roadmap.
func (r Result) Found() bool {
	return r.Source != SourceNone
}

// Nodes returns the authoritative nodes in phase order.
func (r Result) Nodes() []Node {
	return Flatten(r.Phases)
}

// TableBlock returns the span of the i-th table together with its phase
// header and a closing </details> right after it. A header shared with an
// earlier table belongs to that table.
func (r Result) TableBlock(text string, i int) Span {
	t := r.Tables[i]
	block := t.Span
	if t.Heading != nil && (i == 0 || r.Tables[i-1].Heading == nil || r.Tables[i-1].Heading.Line != t.Heading.Line) {
		block.Start = t.Heading.Line.Start
	}

	rest := text[block.End:]
	for _, l := range splitLines(rest) {
		s := strings.TrimSpace(l.text)
		if s == "" {
			continue
		}
		if strings.EqualFold(s, "</details>") {
			block.End += lineEnd(rest, l)
		}
		break
	}
	return block
}

// HeadingLevel returns the heading level used by the document's phase
// headers, or the default level when there are none.
func (r Result) HeadingLevel() int {
	if len(r.Headings) > 0 {
		return r.Headings[0].Level
	}
	return DefaultTableOptions().HeadingLevel
}

// Parse reads the roadmap in text. The YAML block wins when both encodings
// are present; a malformed block falls back to the tables with a warning.
// Phase names are attached by EnrichPhaseNames as a separate pass.
func Parse(text string) Result {
	res := ParseStructure(text)
	res.Phases = EnrichPhaseNames(res.Phases, text)
	res.TablePhases = EnrichPhaseNames(res.TablePhases, text)
	return res
}

// ParseStructure reads the structured content of text without attaching
// phase names.
func ParseStructure(text string) Result {
	var res Result

	block, err := FindYAMLBlock(text)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("roadmap yaml block ignored: %v", err))
	}

	scan := scanTables(text)
	res.Tables = scan.tables
	res.Headings = scan.headings
	res.HasTable = len(scan.tables) > 0
	res.Dialect = dialectOf(scan.tables)
	res.TablePhases = GroupPhases(scan.nodes)

	if block != nil {
		res.YAML = block
		res.HasYAML = true
		res.Warnings = append(res.Warnings, block.Warnings...)
	}

	switch {
	case block != nil:
		res.Source = SourceYAML
		res.Phases = GroupPhases(block.Nodes)
	case res.HasTable:
		res.Source = SourceTable
		res.Phases = ClonePhases(res.TablePhases)
	}
	res.Warnings = append(res.Warnings, scan.warnings...)
	return res
}

func dialectOf(tables []Table) Dialect {
	d := DialectNone
	for _, t := range tables {
		switch {
		case d == DialectNone:
			d = t.Dialect
		case d != t.Dialect:
			return DialectMixed
		}
	}
	return d
}
