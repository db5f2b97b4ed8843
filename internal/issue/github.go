package issue

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// CommandExecutor runs a command and returns its output. Tests inject fakes.
type CommandExecutor func(ctx context.Context, name string, args ...string) ([]byte, error)

// defaultExecutor runs commands using os/exec. Stdout is the output; on
// failure stderr is appended so errors can be classified.
var defaultExecutor CommandExecutor = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out = append(out, exitErr.Stderr...)
	}
	return out, err
}

// Retry defaults for fetches and writes that fail with a transient error.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
)

// GitHubStore implements Store for issue bodies and issue comments using
// the gh CLI.
type GitHubStore struct {
	executor   CommandExecutor
	command    string
	attempts   int
	retryDelay time.Duration
}

// NewGitHubStore creates a GitHubStore using the default command executor.
func NewGitHubStore() *GitHubStore {
	return NewGitHubStoreWithExecutor(defaultExecutor)
}

// NewGitHubStoreWithExecutor creates a GitHubStore with a custom command
// executor for testing.
func NewGitHubStoreWithExecutor(executor CommandExecutor) *GitHubStore {
	return &GitHubStore{
		executor:   executor,
		command:    "gh",
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}
}

// WithRetry sets how many times a fetch or write is tried when gh reports a
// transient failure, and the delay before the first retry. The delay grows
// linearly with each attempt.
func (g *GitHubStore) WithRetry(attempts int, delay time.Duration) *GitHubStore {
	g.attempts = max(attempts, 1)
	g.retryDelay = max(delay, 0)
	return g
}

// run executes gh, retrying while the classified error is retryable.
// Body fetches and body replacements are idempotent, so repeating them is
// safe; issue creation never goes through here.
func (g *GitHubStore) run(ctx context.Context, ref Ref, op string, args ...string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		output, err := g.executor(ctx, g.command, args...)
		if err == nil {
			return output, nil
		}
		lastErr = classifyError(err, output, ref, op)
		if !errors.IsRetryable(lastErr) || attempt == g.attempts {
			break
		}

		timer := time.NewTimer(g.retryDelay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// WithCommand sets the gh executable to run, such as an absolute path.
// An empty name keeps the current one.
func (g *GitHubStore) WithCommand(name string) *GitHubStore {
	if name != "" {
		g.command = name
	}
	return g
}

// bodyResponse is the part of gh's JSON output we read.
type bodyResponse struct {
	Body string `json:"body"`
}

// Fetch returns the issue body or comment body.
func (g *GitHubStore) Fetch(ctx context.Context, ref Ref) (string, error) {
	if err := checkGitHubRef(ref); err != nil {
		return "", err
	}

	var args []string
	if ref.Kind == KindComment {
		args = []string{"api", commentPath(ref)}
	} else {
		args = []string{"issue", "view", strconv.Itoa(ref.Number), "--repo", ref.RepoSlug(), "--json", "body"}
	}

	output, err := g.run(ctx, ref, "fetch", args...)
	if err != nil {
		return "", err
	}

	var resp bodyResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", errors.NewStoreError("failed to parse gh output", err).
			WithRef(ref.String()).
			WithOperation("fetch")
	}
	return resp.Body, nil
}

// Write replaces the issue body or comment body.
func (g *GitHubStore) Write(ctx context.Context, ref Ref, doc string) error {
	if err := checkGitHubRef(ref); err != nil {
		return err
	}

	var args []string
	if ref.Kind == KindComment {
		args = []string{"api", "--method", "PATCH", commentPath(ref), "-f", "body=" + doc}
	} else {
		args = []string{"issue", "edit", strconv.Itoa(ref.Number), "--repo", ref.RepoSlug(), "--body", doc}
	}

	if _, err := g.run(ctx, ref, "write", args...); err != nil {
		return err
	}
	return nil
}

// CreateIssue creates a GitHub issue and returns its reference.
func (g *GitHubStore) CreateIssue(ctx context.Context, opts IssueOptions) (Ref, error) {
	if opts.Title == "" {
		return Ref{}, errors.NewValidationError("issue title is required").WithField("title")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return Ref{}, errors.NewValidationError("issue repository is required").WithField("repo")
	}

	args := []string{"issue", "create",
		"--repo", opts.Owner + "/" + opts.Repo,
		"--title", opts.Title,
		"--body", opts.Body,
	}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}

	target := Ref{Kind: KindIssue, Owner: opts.Owner, Repo: opts.Repo}
	output, err := g.executor(ctx, g.command, args...)
	if err != nil {
		return Ref{}, classifyError(err, output, target, "create")
	}

	num, err := parseIssueNumber(strings.TrimSpace(string(output)))
	if err != nil {
		return Ref{}, errors.NewStoreError("issue created but its number is unknown", err).
			WithOperation("create").
			WithOutput(strings.TrimSpace(string(output)))
	}
	target.Number = num
	return target, nil
}

// CloseIssue closes a GitHub issue.
func (g *GitHubStore) CloseIssue(ctx context.Context, ref Ref) error {
	if err := checkGitHubRef(ref); err != nil {
		return err
	}
	output, err := g.executor(ctx, g.command, "issue", "close", strconv.Itoa(ref.Number), "--repo", ref.RepoSlug())
	if err != nil {
		return classifyError(err, output, ref, "close")
	}
	return nil
}

func checkGitHubRef(ref Ref) error {
	if !ref.IsGitHub() {
		return errors.NewStoreError("not a GitHub reference", errors.ErrInvalidRef).WithRef(ref.String())
	}
	if ref.Owner == "" || ref.Repo == "" || ref.Number <= 0 {
		return errors.NewStoreError("incomplete GitHub reference", errors.ErrInvalidRef).WithRef(ref.String())
	}
	return nil
}

func commentPath(ref Ref) string {
	return fmt.Sprintf("repos/%s/%s/issues/comments/%d", ref.Owner, ref.Repo, ref.CommentID)
}

// classifyError analyzes the error and output from a gh command and wraps
// the matching sentinel so callers can use errors.Is.
func classifyError(err error, output []byte, ref Ref, op string) error {
	out := strings.TrimSpace(string(output))
	lower := strings.ToLower(out)

	var cause error
	retryable := false

	var execErr *exec.Error
	switch {
	case errors.As(err, &execErr):
		cause = errors.ErrProviderUnavailable

	case strings.Contains(lower, "not logged in") ||
		strings.Contains(lower, "authentication required") ||
		strings.Contains(lower, "gh auth login"):
		cause = errors.ErrAuthRequired

	// Only issue-specific "not found" patterns, to avoid false positives.
	case strings.Contains(lower, "could not find issue") ||
		strings.Contains(lower, "issue not found") ||
		strings.Contains(lower, "http 404"):
		cause = errors.ErrIssueNotFound

	case strings.Contains(lower, "could not resolve to a repository"):
		cause = errors.ErrIssueNotFound

	case strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "http 502") ||
		strings.Contains(lower, "http 503"):
		cause = err
		retryable = true

	default:
		cause = err
	}

	return errors.NewStoreError("gh command failed", cause).
		WithRef(ref.String()).
		WithOperation(op).
		WithOutput(out).
		WithRetryable(retryable)
}

var issueURLNumberRegex = regexp.MustCompile(`/issues/(\d+)`)

// parseIssueNumber extracts the issue number from gh output such as
// https://github.com/owner/repo/issues/123.
func parseIssueNumber(output string) (int, error) {
	matches := issueURLNumberRegex.FindStringSubmatch(output)
	if len(matches) < 2 {
		return 0, fmt.Errorf("could not parse issue number from: %s", output)
	}
	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid issue number: %w", err)
	}
	return num, nil
}

var (
	_ Store   = (*GitHubStore)(nil)
	_ Creator = (*GitHubStore)(nil)
	_ Closer  = (*GitHubStore)(nil)
)
