package mutate

import (
	"strings"
	"testing"
)

var sectionDoc = fenced(`# Objective

## Context

Old context.

'''
## Not a heading
'''

### Detail

Nested detail.

## Design Decisions

- keep it simple
`)

func TestSections(t *testing.T) {
	sections := Sections(sectionDoc)

	var got []string
	for _, s := range sections {
		got = append(got, s.Heading)
	}
	want := []string{"Objective", "Context", "Detail", "Design Decisions"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("headings = %q, want %q", got, want)
	}

	context := sections[1]
	body := sectionDoc[context.Body.Start:context.Body.End]
	if !strings.Contains(body, "Old context.") || !strings.Contains(body, "Nested detail.") {
		t.Errorf("Context body = %q, want it to include nested sections", body)
	}
	if strings.Contains(body, "Design Decisions") {
		t.Errorf("Context body runs into the next sibling: %q", body)
	}
}

func TestReplaceSection(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		body    string
		want    string
		wantErr bool
	}{
		{
			name:    "middle section",
			heading: "Context",
			body:    "New context.",
			want:    "## Context\n\nNew context.\n\n## Design Decisions\n",
		},
		{
			name:    "last section",
			heading: "## design decisions",
			body:    "\n- ship it\n",
			want:    "## Design Decisions\n\n- ship it\n",
		},
		{
			name:    "heading inside code fence",
			heading: "Not a heading",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ReplaceSection(sectionDoc, tt.heading, tt.body)
			if tt.wantErr {
				if err == nil {
					t.Error("ReplaceSection() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReplaceSection() error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("ReplaceSection() =\n%s\nwant it to contain %q", out, tt.want)
			}
			if !strings.HasPrefix(out, "# Objective\n\n## Context\n") {
				t.Errorf("document head changed:\n%s", out)
			}
		})
	}
}

func TestHash(t *testing.T) {
	a := Hash("one")
	if len(a) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(a))
	}
	if Hash("one") != a {
		t.Error("Hash() not deterministic")
	}
	if Hash("one ") == a {
		t.Error("Hash() ignores content changes")
	}
}
