package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/config"
	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/graph"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
	"github.com/Iron-Ham/roadmap/internal/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errReported marks an error whose details a command already printed.
var errReported = errors.New("reported")

// reported wraps err so Execute does not print it a second time.
func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

// Status colors, matching the instance status palette of the terminal UI.
var statusColors = map[roadmap.Status]lipgloss.Color{
	roadmap.StatusPending:    lipgloss.Color("#9CA3AF"), // Gray
	roadmap.StatusPlanning:   lipgloss.Color("#60A5FA"), // Blue
	roadmap.StatusInProgress: lipgloss.Color("#F59E0B"), // Amber
	roadmap.StatusDone:       lipgloss.Color("#10B981"), // Green
	roadmap.StatusBlocked:    lipgloss.Color("#F87171"), // Red
	roadmap.StatusSkipped:    lipgloss.Color("#6B7280"), // Gray-500
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

// printer writes command results either as JSON or as styled text.
type printer struct {
	w     io.Writer
	json  bool
	color bool
	width int
}

func newPrinter(cmd *cobra.Command, cfg *config.Config) *printer {
	p := &printer{
		w:     cmd.OutOrStdout(),
		color: cfg.Output.Color,
		width: cfg.Output.DescriptionWidth,
	}

	jsonFlag, _ := cmd.Flags().GetBool("json")
	switch {
	case jsonFlag:
		p.json = true
	case cfg.Output.Format == config.FormatJSON:
		p.json = true
	case cfg.Output.Format == config.FormatText:
		p.json = false
	default:
		p.json = !isTerminal(p.w)
	}
	if !isTerminal(p.w) {
		p.color = false
	}
	return p
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or 0 when unknown.
func terminalWidth() int {
	if termWidth, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return termWidth
	}
	return 0
}

func (p *printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func (p *printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) status(s roadmap.Status) string {
	text := util.Pad(string(s), len("in_progress"))
	if c, ok := statusColors[s]; ok && p.color {
		return lipgloss.NewStyle().Foreground(c).Render(text)
	}
	return text
}

// describe truncates a description to the configured width, shrunk to fit
// the terminal when one is attached.
func (p *printer) describe(text string) string {
	width := p.width
	if tw := terminalWidth(); tw > 0 && p.color {
		// id, status, plan and pr columns take roughly 40 columns
		if avail := tw - 40; avail > 10 && (width == 0 || avail < width) {
			width = avail
		}
	}
	return util.Truncate(text, width)
}

// refOrDash renders an empty reference as a dash.
func refOrDash(ref string) string {
	if ref == "" {
		return "-"
	}
	return ref
}

// phaseTitle renders a phase heading, bare when the phase has no name of
// its own.
func phaseTitle(ph roadmap.Phase) string {
	if ph.HasPlaceholderName() {
		return "Phase " + ph.Key.String()
	}
	return fmt.Sprintf("Phase %s: %s", ph.Key, ph.Name)
}

// Roadmap prints phases and their steps with graph annotations. Steps that
// cannot start yet show the status they are waiting on.
func (p *printer) Roadmap(phases []roadmap.Phase, snap graph.Snapshot, warnings []string) {
	pending := make(map[string]bool, len(snap.PendingUnblocked))
	for _, id := range snap.PendingUnblocked {
		pending[id] = true
	}
	waiting := make(map[string]roadmap.Status)
	for _, n := range snap.Nodes {
		if n.WaitingOn != "" {
			waiting[n.ID] = n.WaitingOn
		}
	}

	for i, ph := range phases {
		if i > 0 {
			p.Printf("\n")
		}
		p.Printf("%s\n", p.style(headerStyle, phaseTitle(ph)))
		for _, n := range ph.Nodes {
			marker := " "
			if pending[n.ID] {
				marker = p.style(okStyle, "→")
			}
			line := fmt.Sprintf("%s %s %s %s %s  %s",
				marker,
				util.Pad(n.ID, 6),
				p.status(n.Status),
				util.Pad(refOrDash(n.Plan), 10),
				util.Pad(refOrDash(n.PR), 10),
				p.describe(n.Description),
			)
			if s, ok := waiting[n.ID]; ok {
				line += "  " + p.style(mutedStyle, "(waiting on "+string(s)+")")
			}
			p.Printf("%s\n", line)
		}
	}

	s := snap.Summary
	p.Printf("\n%s\n", p.style(mutedStyle, fmt.Sprintf("%s: %d done, %d in progress, %d planning, %d pending, %d blocked, %d skipped",
		util.Plural(s.Total, "step", "steps"), s.Done, s.InProgress, s.Planning, s.Pending, s.Blocked, s.Skipped)))
	switch {
	case snap.IsComplete:
		p.Printf("%s\n", p.style(okStyle, "All steps are finished."))
	case snap.NextNode != nil:
		p.Printf("Next: %s\n", *snap.NextNode)
	case snap.CurrentNode != nil:
		p.Printf("Current: %s (nothing else is ready)\n", *snap.CurrentNode)
	}
	p.Warnings(warnings)
}

// Waves prints the execution order, one wave of steps per line.
func (p *printer) Waves(waves [][]string) {
	p.Printf("\n%s\n", p.style(headerStyle, "Execution order"))
	for i, wave := range waves {
		p.Printf("  %d: %s\n", i+1, strings.Join(wave, ", "))
	}
}

// Warnings prints parse warnings.
func (p *printer) Warnings(warnings []string) {
	for _, w := range warnings {
		p.Printf("%s %s\n", p.style(warnStyle, "warning:"), w)
	}
}

// Check prints one pass/fail line.
func (p *printer) Check(passed bool, name, message string) {
	mark := p.style(okStyle, "✓")
	if !passed {
		mark = p.style(failStyle, "✗")
	}
	line := fmt.Sprintf("%s %s", mark, name)
	if message != "" {
		line += ": " + message
	}
	p.Printf("%s\n", line)
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
