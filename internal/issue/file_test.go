package issue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ref := Ref{Kind: KindFile, Path: filepath.Join(t.TempDir(), "roadmap.md")}
	store := NewFileStore()
	ctx := context.Background()

	if err := store.Write(ctx, ref, "first\n"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, ref, "second\n"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := store.Fetch(ctx, ref)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != "second\n" {
		t.Errorf("Fetch() = %q, want %q", got, "second\n")
	}

	entries, err := os.ReadDir(filepath.Dir(ref.Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the document", len(entries))
	}
}

func TestFileStore_Errors(t *testing.T) {
	store := NewFileStore()
	ctx := context.Background()

	missing := Ref{Kind: KindFile, Path: filepath.Join(t.TempDir(), "missing.md")}
	if _, err := store.Fetch(ctx, missing); !errors.Is(err, errors.ErrIssueNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrIssueNotFound", err)
	}

	if _, err := store.Fetch(ctx, issueRef); !errors.Is(err, errors.ErrInvalidRef) {
		t.Errorf("Fetch(issue ref) error = %v, want ErrInvalidRef", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.Write(cancelled, missing, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Write(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestMux_Routes(t *testing.T) {
	gh := NewMemoryStore(map[string]string{issueRef.String(): "issue doc"})
	files := NewMemoryStore(map[string]string{"file:a.md": "file doc"})
	mux := &Mux{GitHub: gh, File: files}
	ctx := context.Background()

	if got, _ := mux.Fetch(ctx, issueRef); got != "issue doc" {
		t.Errorf("Fetch(issue) = %q", got)
	}
	if got, _ := mux.Fetch(ctx, Ref{Kind: KindFile, Path: "a.md"}); got != "file doc" {
		t.Errorf("Fetch(file) = %q", got)
	}
	if gh.Fetches() != 1 || files.Fetches() != 1 {
		t.Errorf("fetches = %d/%d, want 1/1", gh.Fetches(), files.Fetches())
	}

	fileOnly := &Mux{File: files}
	if _, err := fileOnly.Fetch(ctx, issueRef); !errors.Is(err, errors.ErrProviderUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrProviderUnavailable", err)
	}
	if _, err := fileOnly.CreateIssue(ctx, IssueOptions{Title: "t"}); !errors.Is(err, errors.ErrProviderUnavailable) {
		t.Errorf("CreateIssue() error = %v, want ErrProviderUnavailable", err)
	}
}
