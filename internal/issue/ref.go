// Package issue reads and writes the documents that host roadmaps: GitHub
// issue bodies, GitHub issue comments and local markdown files.
package issue

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// Kind says where a document lives.
type Kind int

const (
	// KindIssue is the body of a GitHub issue.
	KindIssue Kind = iota
	// KindComment is a comment on a GitHub issue.
	KindComment
	// KindFile is a local file.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindIssue:
		return "issue"
	case KindComment:
		return "comment"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Ref identifies one document.
type Ref struct {
	Kind      Kind
	Owner     string
	Repo      string
	Number    int
	CommentID int64
	Path      string
}

// RepoSlug returns "owner/repo".
func (r Ref) RepoSlug() string {
	return r.Owner + "/" + r.Repo
}

// String renders the ref in the form ParseRef accepts.
func (r Ref) String() string {
	switch r.Kind {
	case KindFile:
		return "file:" + r.Path
	case KindComment:
		return fmt.Sprintf("https://github.com/%s/issues/%d#issuecomment-%d", r.RepoSlug(), r.Number, r.CommentID)
	default:
		return fmt.Sprintf("%s#%d", r.RepoSlug(), r.Number)
	}
}

// IsGitHub reports whether the ref points at GitHub.
func (r Ref) IsGitHub() bool {
	return r.Kind == KindIssue || r.Kind == KindComment
}

var (
	// https://github.com/owner/repo/issues/123
	// https://github.com/owner/repo/issues/123#issuecomment-456
	githubURLRegex = regexp.MustCompile(
		`^https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)/issues/(\d+)(?:#issuecomment-(\d+))?(?:[?#].*)?$`,
	)

	// owner/repo#123
	githubShorthandRegex = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)#(\d+)$`)

	// #123 or 123
	numberRegex = regexp.MustCompile(`^#?(\d+)$`)

	repoSlugRegex = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)
)

// RefOptions controls how ParseRef reads ambiguous input.
type RefOptions struct {
	// DefaultRepo ("owner/repo") resolves bare issue numbers.
	DefaultRepo string
	// Files makes every input that is not a GitHub reference a file path.
	Files bool
}

// ParseRef reads a document reference. Accepted forms:
//
//   - https://github.com/owner/repo/issues/123
//   - https://github.com/owner/repo/issues/123#issuecomment-456
//   - owner/repo#123
//   - #123 or 123 (needs DefaultRepo)
//   - file:path/to/roadmap.md, or any path that exists or ends in .md
func ParseRef(s string, opts RefOptions) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, invalidRef(s, "empty reference")
	}

	if path, ok := strings.CutPrefix(s, "file:"); ok {
		if path == "" {
			return Ref{}, invalidRef(s, "empty file path")
		}
		return Ref{Kind: KindFile, Path: path}, nil
	}

	if m := githubURLRegex.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[3])
		ref := Ref{Kind: KindIssue, Owner: m[1], Repo: m[2], Number: num}
		if m[4] != "" {
			id, err := strconv.ParseInt(m[4], 10, 64)
			if err != nil {
				return Ref{}, invalidRef(s, "invalid comment id")
			}
			ref.Kind = KindComment
			ref.CommentID = id
		}
		return ref, nil
	}

	if m := githubShorthandRegex.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[3])
		return Ref{Kind: KindIssue, Owner: m[1], Repo: m[2], Number: num}, nil
	}

	if m := numberRegex.FindStringSubmatch(s); m != nil && !opts.Files {
		if opts.DefaultRepo == "" {
			return Ref{}, invalidRef(s, "bare issue number needs a default repository (store.repo)")
		}
		owner, repo, err := splitRepo(opts.DefaultRepo)
		if err != nil {
			return Ref{}, err
		}
		num, _ := strconv.Atoi(m[1])
		return Ref{Kind: KindIssue, Owner: owner, Repo: repo, Number: num}, nil
	}

	if opts.Files || looksLikeFile(s) {
		return Ref{Kind: KindFile, Path: s}, nil
	}

	return Ref{}, invalidRef(s, "not an issue URL, owner/repo#N, or file path")
}

func looksLikeFile(s string) bool {
	if strings.HasSuffix(strings.ToLower(s), ".md") {
		return true
	}
	_, err := os.Stat(s)
	return err == nil
}

func splitRepo(slug string) (string, string, error) {
	m := repoSlugRegex.FindStringSubmatch(strings.TrimSpace(slug))
	if m == nil {
		return "", "", invalidRef(slug, "repository must be owner/repo")
	}
	return m[1], m[2], nil
}

func invalidRef(s, reason string) error {
	return errors.NewValidationError(reason).
		WithField("ref").
		WithValue(s).
		WithCause(errors.ErrInvalidRef)
}
