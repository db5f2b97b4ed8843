package mutate

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// markdown is only used to locate headings, so no renderer options matter.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Section is a prose section located in a document.
type Section struct {
	Heading string
	Level   int
	// Line is the span of the heading line; Body runs from the line after
	// the heading to the next heading of the same or a higher level.
	Line Span
	Body Span
}

// Span is a half-open byte range.
type Span struct {
	Start int
	End   int
}

// Sections lists the top-level headed sections of doc in order. Headings
// inside code blocks are not sections.
func Sections(doc string) []Section {
	src := []byte(doc)
	root := markdown.Parser().Parse(text.NewReader(src))

	type found struct {
		heading *ast.Heading
		line    Span
	}
	var headings []found
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		start := lineStart(src, seg.Start)
		end := lineEndAfter(src, seg.Stop)
		if !isATX(src[start:]) {
			// Setext heading: the underline belongs to the heading.
			end = lineEndAfter(src, end)
		}
		headings = append(headings, found{heading: h, line: Span{Start: start, End: end}})
	}

	sections := make([]Section, 0, len(headings))
	for i, f := range headings {
		seg := f.heading.Lines().At(0)
		s := Section{
			Heading: strings.TrimSpace(strings.Trim(string(seg.Value(src)), "#")),
			Level:   f.heading.Level,
			Line:    f.line,
			Body:    Span{Start: f.line.End, End: len(src)},
		}
		for _, next := range headings[i+1:] {
			if next.heading.Level <= f.heading.Level {
				s.Body.End = next.line.Start
				break
			}
		}
		sections = append(sections, s)
	}
	return sections
}

// FindSection returns the first section whose heading matches heading,
// ignoring case and any leading '#' markers.
func FindSection(doc, heading string) (Section, bool) {
	want := normalizeHeading(heading)
	for _, s := range Sections(doc) {
		if normalizeHeading(s.Heading) == want {
			return s, true
		}
	}
	return Section{}, false
}

// ReplaceSection replaces the body of the section titled heading. The
// heading line itself and every other section are left as they are.
func ReplaceSection(doc, heading, body string) (string, error) {
	s, ok := FindSection(doc, heading)
	if !ok {
		return doc, errors.NewNotFoundError("section", heading)
	}
	replacement := "\n" + strings.Trim(body, "\n") + "\n"
	if s.Body.End < len(doc) {
		replacement += "\n"
	}
	return doc[:s.Body.Start] + replacement + doc[s.Body.End:], nil
}

func normalizeHeading(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(h), "#")))
}

func lineStart(src []byte, offset int) int {
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}

func lineEndAfter(src []byte, offset int) int {
	if offset >= len(src) {
		return len(src)
	}
	if nl := bytes.IndexByte(src[offset:], '\n'); nl >= 0 {
		return offset + nl + 1
	}
	return len(src)
}

func isATX(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(line, " "), []byte("#"))
}
