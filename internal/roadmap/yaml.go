package roadmap

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Markers delimiting the YAML roadmap block inside a document.
const (
	YAMLStartMarker = "<!-- roadmap:steps -->"
	YAMLEndMarker   = "<!-- /roadmap:steps -->"
)

// SchemaVersion is the schema_version written into new YAML blocks.
const SchemaVersion = "2"

// yamlDocument is the decoded form of the YAML block.
type yamlDocument struct {
	SchemaVersion string     `yaml:"schema_version"`
	Steps         []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Plan        *string  `yaml:"plan"`
	PR          *string  `yaml:"pr"`
	DependsOn   []string `yaml:"depends_on"`
}

func (s yamlStep) node() (Node, []string) {
	var warnings []string
	id := strings.TrimSpace(s.ID)
	plan, pr := derefRef(s.Plan), derefRef(s.PR)
	if s.Status != "" {
		if _, ok := ParseStatus(s.Status); !ok && strings.TrimSpace(s.Status) != placeholderStatus {
			warnings = append(warnings, fmt.Sprintf("step %s: unknown status %q, inferring from references", id, s.Status))
		}
	}
	var deps []string
	for _, d := range s.DependsOn {
		if d = strings.TrimSpace(d); d != "" {
			deps = append(deps, d)
		}
	}
	return Node{
		ID:          id,
		Description: strings.TrimSpace(s.Description),
		Status:      ResolveStatus(s.Status, plan, pr),
		Plan:        plan,
		PR:          pr,
		DependsOn:   deps,
	}, warnings
}

func derefRef(ref *string) string {
	if ref == nil {
		return ""
	}
	return NormalizeRef(*ref)
}

// YAMLEntry locates one step of the YAML block in the document text.
type YAMLEntry struct {
	ID string
	// Span covers the entry's lines, from its list dash to the line before
	// the next entry.
	Span Span
	// KeyIndent is the column at which the entry's keys are written.
	KeyIndent int
	// Flow is set when the entry is written in flow style ({id: ..., ...})
	// and has no key lines of its own.
	Flow bool
}

// YAMLBlock is a decoded YAML roadmap block and its location.
type YAMLBlock struct {
	// Span covers the start marker line through the end marker line.
	Span Span
	// Body covers the YAML text between the code fences.
	Body          Span
	SchemaVersion string
	Nodes         []Node
	Entries       []YAMLEntry
	Warnings      []string
}

// Entry returns the entries whose ID matches id.
func (b *YAMLBlock) Entry(id string) []YAMLEntry {
	var out []YAMLEntry
	for _, e := range b.Entries {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// FindYAMLBlock locates and decodes the YAML roadmap block. It returns nil
// and no error when the document has no block; an error means a block is
// present but cannot be used.
func FindYAMLBlock(text string) (*YAMLBlock, error) {
	blockSpan, body, found, err := locateYAMLBlock(text)
	if !found {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	block, err := decodeYAMLBlock(text, body)
	if err != nil {
		return nil, err
	}
	block.Span = blockSpan
	return block, nil
}

// locateYAMLBlock finds the marker lines and the fenced body between them.
func locateYAMLBlock(text string) (block, body Span, found bool, err error) {
	lines := splitLines(text)
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l.text) == YAMLStartMarker {
			start = i
			break
		}
	}
	if start < 0 {
		return Span{}, Span{}, false, nil
	}

	open, closing, end := -1, -1, -1
	for i := start + 1; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i].text)
		switch {
		case open < 0 && isFence(t):
			open = i
		case open >= 0 && closing < 0 && (t == "```" || t == "~~~"):
			closing = i
		case t == YAMLEndMarker:
			end = i
		}
		if end >= 0 {
			break
		}
	}

	switch {
	case end < 0:
		return Span{}, Span{}, true, fmt.Errorf("missing %s marker", YAMLEndMarker)
	case open < 0 || open > end:
		return Span{}, Span{}, true, fmt.Errorf("no fenced yaml between markers")
	case closing < 0 || closing > end:
		return Span{}, Span{}, true, fmt.Errorf("unterminated yaml code fence")
	}

	block = Span{Start: lines[start].start, End: lineEnd(text, lines[end])}
	body = Span{Start: lineEnd(text, lines[open]), End: lines[closing].start}
	return block, body, true, nil
}

// decodeYAMLBlock decodes the YAML body and records where each step sits.
func decodeYAMLBlock(text string, body Span) (*YAMLBlock, error) {
	src := text[body.Start:body.End]

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	var doc yamlDocument
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid roadmap yaml: %w", err)
	}

	block := &YAMLBlock{Body: body, SchemaVersion: doc.SchemaVersion}
	if doc.SchemaVersion != "" && doc.SchemaVersion != SchemaVersion {
		block.Warnings = append(block.Warnings,
			fmt.Sprintf("unsupported schema_version %q, reading as %s", doc.SchemaVersion, SchemaVersion))
	}

	seq := stepSequence(&root)
	var items []*yaml.Node
	if seq != nil {
		items = seq.Content
	}
	lines := splitLines(src)
	for i, step := range doc.Steps {
		n, warnings := step.node()
		block.Warnings = append(block.Warnings, warnings...)
		if n.ID == "" {
			block.Warnings = append(block.Warnings, fmt.Sprintf("step %d has no id; skipped", i+1))
			continue
		}
		block.Nodes = append(block.Nodes, n)
		if i < len(items) {
			entry := entrySpan(lines, items, i, len(src))
			entry.ID = n.ID
			entry.Flow = seq.Style&yaml.FlowStyle != 0 || items[i].Style&yaml.FlowStyle != 0
			entry.Span.Start += body.Start
			entry.Span.End += body.Start
			block.Entries = append(block.Entries, entry)
		}
	}
	return block, nil
}

// stepSequence returns the sequence node under the top-level "steps" key.
func stepSequence(root *yaml.Node) *yaml.Node {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == "steps" && m.Content[i+1].Kind == yaml.SequenceNode {
			return m.Content[i+1]
		}
	}
	return nil
}

// entrySpan computes the byte span of item i relative to the YAML body.
// Node line numbers from yaml.v3 are 1-based.
func entrySpan(lines []line, items []*yaml.Node, i, size int) YAMLEntry {
	first := entryFirstLine(lines, items[i].Line-1)
	entry := YAMLEntry{KeyIndent: max(items[i].Column-1, 0)}
	if first >= len(lines) {
		return entry
	}
	entry.Span.Start = lines[first].start

	if i+1 < len(items) {
		next := entryFirstLine(lines, items[i+1].Line-1)
		if next < len(lines) {
			entry.Span.End = lines[next].start
			return entry
		}
	}

	dashIndent := indentOf(lines[first].text)
	entry.Span.End = size
	for j := first + 1; j < len(lines); j++ {
		t := lines[j].text
		if strings.TrimSpace(t) == "" {
			continue
		}
		if indentOf(t) <= dashIndent {
			entry.Span.End = lines[j].start
			break
		}
	}
	return entry
}

// entryFirstLine moves back from an item's first key to a lone dash line.
func entryFirstLine(lines []line, idx int) int {
	if idx > 0 && idx <= len(lines) && strings.TrimSpace(lines[idx-1].text) == "-" {
		return idx - 1
	}
	return idx
}

func indentOf(text string) int {
	return len(text) - len(strings.TrimLeft(text, " \t"))
}

// RenderYAMLBody renders nodes as the YAML text placed inside the fence.
func RenderYAMLBody(nodes []Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema_version: %s\n", strconv.Quote(SchemaVersion))
	if len(nodes) == 0 {
		b.WriteString("steps: []\n")
		return b.String()
	}
	b.WriteString("steps:\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  - id: %s\n", strconv.Quote(n.ID))
		fmt.Fprintf(&b, "    description: %s\n", YAMLString(n.Description))
		fmt.Fprintf(&b, "    status: %s\n", n.Status)
		fmt.Fprintf(&b, "    plan: %s\n", YAMLRef(n.Plan))
		fmt.Fprintf(&b, "    pr: %s\n", YAMLRef(n.PR))
		fmt.Fprintf(&b, "    depends_on: %s\n", yamlIDList(n.DependsOn))
	}
	return b.String()
}

// RenderYAMLBlock renders nodes as a complete marker-delimited YAML block.
func RenderYAMLBlock(nodes []Node) string {
	var b strings.Builder
	b.WriteString(YAMLStartMarker + "\n")
	b.WriteString("```yaml\n")
	b.WriteString(RenderYAMLBody(nodes))
	b.WriteString("```\n")
	b.WriteString(YAMLEndMarker + "\n")
	return b.String()
}

// YAMLRef renders a plan or PR reference as a YAML scalar.
func YAMLRef(ref string) string {
	if ref = NormalizeRef(ref); ref == "" {
		return "null"
	}
	return strconv.Quote(ref)
}

// YAMLString renders free text as a single-line YAML scalar, quoting it
// only when plain style would change its meaning.
func YAMLString(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return `""`
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	rendered := strings.TrimSuffix(string(out), "\n")
	if strings.Contains(rendered, "\n") {
		return strconv.Quote(s)
	}
	return rendered
}

func yamlIDList(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
