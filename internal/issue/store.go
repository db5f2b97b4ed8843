package issue

import (
	"context"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// Store fetches and writes whole documents. Roadmap operations call it only
// at their boundaries: one Fetch and at most one Write per operation.
type Store interface {
	Fetch(ctx context.Context, ref Ref) (string, error)
	Write(ctx context.Context, ref Ref, doc string) error
}

// IssueOptions describes an issue to create.
type IssueOptions struct {
	Owner  string
	Repo   string
	Title  string
	Body   string
	Labels []string
}

// Creator opens new issues. Dispatch uses it to create plan issues.
type Creator interface {
	CreateIssue(ctx context.Context, opts IssueOptions) (Ref, error)
}

// Closer closes issues.
type Closer interface {
	CloseIssue(ctx context.Context, ref Ref) error
}

// Mux routes each ref to the store for its kind.
type Mux struct {
	GitHub Store
	File   Store
}

func (m *Mux) route(ref Ref) (Store, error) {
	var s Store
	if ref.Kind == KindFile {
		s = m.File
	} else {
		s = m.GitHub
	}
	if s == nil {
		return nil, errors.NewStoreError("no store configured for "+ref.Kind.String()+" references", errors.ErrProviderUnavailable).
			WithRef(ref.String())
	}
	return s, nil
}

// Fetch implements Store.
func (m *Mux) Fetch(ctx context.Context, ref Ref) (string, error) {
	s, err := m.route(ref)
	if err != nil {
		return "", err
	}
	return s.Fetch(ctx, ref)
}

// Write implements Store.
func (m *Mux) Write(ctx context.Context, ref Ref, doc string) error {
	s, err := m.route(ref)
	if err != nil {
		return err
	}
	return s.Write(ctx, ref, doc)
}

// CreateIssue implements Creator when the GitHub store does.
func (m *Mux) CreateIssue(ctx context.Context, opts IssueOptions) (Ref, error) {
	c, ok := m.GitHub.(Creator)
	if !ok {
		return Ref{}, errors.NewStoreError("issue creation unavailable", errors.ErrProviderUnavailable).
			WithOperation("create")
	}
	return c.CreateIssue(ctx, opts)
}

// CloseIssue implements Closer when the GitHub store does.
func (m *Mux) CloseIssue(ctx context.Context, ref Ref) error {
	c, ok := m.GitHub.(Closer)
	if !ok {
		return errors.NewStoreError("issue closing unavailable", errors.ErrProviderUnavailable).
			WithRef(ref.String()).
			WithOperation("close")
	}
	return c.CloseIssue(ctx, ref)
}

var (
	_ Store   = (*Mux)(nil)
	_ Creator = (*Mux)(nil)
	_ Closer  = (*Mux)(nil)
)
