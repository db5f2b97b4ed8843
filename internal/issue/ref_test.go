package issue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    RefOptions
		want    Ref
		wantErr bool
	}{
		{
			name:  "full issue url",
			input: "https://github.com/acme/app/issues/12",
			want:  Ref{Kind: KindIssue, Owner: "acme", Repo: "app", Number: 12},
		},
		{
			name:  "issue url with query",
			input: "https://github.com/acme/app/issues/12?foo=bar",
			want:  Ref{Kind: KindIssue, Owner: "acme", Repo: "app", Number: 12},
		},
		{
			name:  "comment url",
			input: "https://github.com/acme/app/issues/12#issuecomment-998877",
			want:  Ref{Kind: KindComment, Owner: "acme", Repo: "app", Number: 12, CommentID: 998877},
		},
		{
			name:  "shorthand",
			input: "acme/app#7",
			want:  Ref{Kind: KindIssue, Owner: "acme", Repo: "app", Number: 7},
		},
		{
			name:  "bare number with default repo",
			input: "#7",
			opts:  RefOptions{DefaultRepo: "acme/app"},
			want:  Ref{Kind: KindIssue, Owner: "acme", Repo: "app", Number: 7},
		},
		{
			name:    "bare number without default repo",
			input:   "7",
			wantErr: true,
		},
		{
			name:    "bad default repo",
			input:   "7",
			opts:    RefOptions{DefaultRepo: "acme"},
			wantErr: true,
		},
		{
			name:  "file prefix",
			input: "file:docs/ROADMAP",
			want:  Ref{Kind: KindFile, Path: "docs/ROADMAP"},
		},
		{
			name:  "markdown path",
			input: "docs/roadmap.md",
			want:  Ref{Kind: KindFile, Path: "docs/roadmap.md"},
		},
		{
			name:  "files mode reads numbers as paths",
			input: "12",
			opts:  RefOptions{Files: true},
			want:  Ref{Kind: KindFile, Path: "12"},
		},
		{
			name:    "pull request url",
			input:   "https://github.com/acme/app/pull/3",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input, tt.opts)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidRef) {
					t.Errorf("ParseRef() error = %v, want ErrInvalidRef", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRef() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRef_ExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ROADMAP")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ParseRef(path, RefOptions{})
	if err != nil {
		t.Fatalf("ParseRef() error = %v", err)
	}
	if got.Kind != KindFile || got.Path != path {
		t.Errorf("ParseRef() = %+v, want file %s", got, path)
	}
}

func TestRef_StringRoundTrip(t *testing.T) {
	refs := []Ref{
		{Kind: KindIssue, Owner: "acme", Repo: "app", Number: 4},
		{Kind: KindComment, Owner: "acme", Repo: "app", Number: 4, CommentID: 55},
		{Kind: KindFile, Path: "notes/roadmap.md"},
	}
	for _, ref := range refs {
		t.Run(ref.Kind.String(), func(t *testing.T) {
			got, err := ParseRef(ref.String(), RefOptions{})
			if err != nil {
				t.Fatalf("ParseRef(%q) error = %v", ref.String(), err)
			}
			if got != ref {
				t.Errorf("ParseRef(%q) = %+v, want %+v", ref.String(), got, ref)
			}
		})
	}
}
