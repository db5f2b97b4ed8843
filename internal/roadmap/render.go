package roadmap

import (
	"fmt"
	"strings"
)

// TableOptions controls how phase tables are rendered.
type TableOptions struct {
	// HeadingLevel is the markdown heading level for phase headers; 0 renders
	// bold text headers instead.
	HeadingLevel int
	// CollapseCompleted wraps the tables of fully terminal phases in a
	// <details> element.
	CollapseCompleted bool
}

// DefaultTableOptions returns the options used when a document carries no
// phase headers to imitate.
func DefaultTableOptions() TableOptions {
	return TableOptions{HeadingLevel: 3}
}

// RenderPhaseHeading renders the header line of a phase. Phases still
// carrying a placeholder name render as a bare "Phase N".
func RenderPhaseHeading(p Phase, level int) string {
	title := "Phase " + p.Key.String()
	if !p.HasPlaceholderName() {
		title += fmt.Sprintf(": %s (%d PR)", p.Name, len(p.Nodes))
	}
	if level <= 0 {
		return "**" + title + "**"
	}
	return strings.Repeat("#", min(level, 6)) + " " + title
}

// RenderRow renders one node as a five-column table row with an explicit
// status.
func RenderRow(n Node) string {
	return fmt.Sprintf("| %s | %s | %s | %s | %s |",
		EscapeCell(n.ID),
		EscapeCell(n.Description),
		n.Status,
		EscapeCell(RefCell(n.Plan)),
		EscapeCell(RefCell(n.PR)),
	)
}

// RenderTable renders the five-column table for the nodes of one phase.
func RenderTable(nodes []Node) string {
	var b strings.Builder
	b.WriteString(CurrentHeaderLine + "\n")
	b.WriteString(CurrentSeparatorLine + "\n")
	for _, n := range nodes {
		b.WriteString(RenderRow(n) + "\n")
	}
	return b.String()
}

// RenderTables renders every phase as a header followed by its table.
// Output always uses the five-column dialect.
func RenderTables(phases []Phase, opts TableOptions) string {
	var b strings.Builder
	for i, p := range phases {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderPhaseHeading(p, opts.HeadingLevel) + "\n\n")
		collapse := opts.CollapseCompleted && p.IsComplete()
		if collapse {
			fmt.Fprintf(&b, "<details>\n<summary>%d steps complete</summary>\n\n", len(p.Nodes))
		}
		b.WriteString(RenderTable(p.Nodes))
		if collapse {
			b.WriteString("\n</details>\n")
		}
	}
	return b.String()
}
