package objective

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/issue"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// Action runs the per-node work of a batch and returns the update to record
// for that node. An error or panic excludes the node from the batch.
type Action func(ctx context.Context, node roadmap.Node) (mutate.NodeUpdate, error)

// Selector picks the nodes a batch acts on.
type Selector func(v *View) ([]roadmap.Node, error)

// NodeFailure is a node left out of a batch.
type NodeFailure struct {
	NodeID string `json:"node_id"`
	Err    error  `json:"-"`
}

func (f NodeFailure) String() string {
	return fmt.Sprintf("%s: %v", f.NodeID, f.Err)
}

// MarshalJSON includes the error message.
func (f NodeFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		NodeID string `json:"node_id"`
		Error  string `json:"error"`
	}{f.NodeID, msg})
}

// BatchResult reports a batch. Updated holds each successful node as
// written; Failed holds the nodes excluded, which keep their prior state.
type BatchResult struct {
	BatchID  string         `json:"batch_id"`
	Updated  []roadmap.Node `json:"updated"`
	Failed   []NodeFailure  `json:"failed"`
	Written  bool           `json:"written"`
	DryRun   bool           `json:"dry_run"`
	Document string         `json:"-"`
}

// FailedIDs returns the ids of the failed nodes.
func (r *BatchResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.NodeID)
	}
	return ids
}

// Err joins the per-node failures, or returns nil.
func (r *BatchResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("node %s: %w", f.NodeID, f.Err))
	}
	return errors.Join(errs...)
}

// BatchOptions configures a batch.
type BatchOptions struct {
	// DryRun runs the per-node actions against the in-memory document but
	// never writes it.
	DryRun bool
}

type batchItem struct {
	node   roadmap.Node
	update func(ctx context.Context) (mutate.NodeUpdate, error)
}

// Batch fetches the document once, runs action for every selected node,
// applies each resulting update in memory in order and writes the document
// once. Nodes whose action fails are skipped; already successful actions are
// not rolled back. Nothing is written when no node succeeded.
//
// When the final write fails the result is returned along with the error so
// callers can see which per-node actions already ran.
func (s *Service) Batch(ctx context.Context, ref issue.Ref, selector Selector, action Action, opts BatchOptions) (*BatchResult, error) {
	return s.runBatch(ctx, ref, opts, func(v *View) ([]batchItem, error) {
		nodes, err := selector(v)
		if err != nil {
			return nil, err
		}
		items := make([]batchItem, 0, len(nodes))
		for _, n := range nodes {
			items = append(items, batchItem{
				node:   n,
				update: func(ctx context.Context) (mutate.NodeUpdate, error) { return action(ctx, n) },
			})
		}
		return items, nil
	})
}

// Apply records caller-provided updates as one batch. Updates apply in
// order, so later updates to a node see earlier ones.
func (s *Service) Apply(ctx context.Context, ref issue.Ref, updates []mutate.Update, opts BatchOptions) (*BatchResult, error) {
	return s.runBatch(ctx, ref, opts, func(v *View) ([]batchItem, error) {
		items := make([]batchItem, 0, len(updates))
		for _, u := range updates {
			n, ok := v.Graph.Node(u.NodeID)
			if !ok {
				n = roadmap.Node{ID: u.NodeID}
			}
			items = append(items, batchItem{
				node:   n,
				update: func(context.Context) (mutate.NodeUpdate, error) { return u.NodeUpdate, nil },
			})
		}
		return items, nil
	})
}

func (s *Service) runBatch(ctx context.Context, ref issue.Ref, opts BatchOptions, plan func(*View) ([]batchItem, error)) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString(), DryRun: opts.DryRun}
	log := s.logger.WithObjective(ref.String()).WithBatch(result.BatchID)

	doc, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	view, err := Load(ref, doc)
	if err != nil {
		return nil, err
	}
	items, err := plan(view)
	if err != nil {
		return nil, err
	}
	log.Info("batch started", "nodes", len(items), "dry_run", opts.DryRun)

	out := doc
	for _, item := range items {
		nodeLog := log.WithNode(item.node.ID)
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, NodeFailure{NodeID: item.node.ID, Err: err})
			continue
		}

		upd, err := runAction(ctx, item.update)
		if err != nil {
			nodeLog.Warn("node action failed", "error", err)
			result.Failed = append(result.Failed, NodeFailure{NodeID: item.node.ID, Err: err})
			continue
		}

		next, err := mutate.UpdateNode(out, item.node.ID, upd)
		if err != nil {
			nodeLog.Warn("node update rejected", "update", upd.String(), "error", err)
			result.Failed = append(result.Failed, NodeFailure{NodeID: item.node.ID, Err: err})
			continue
		}
		out = next

		updated, _ := roadmap.FindNode(roadmap.Parse(out).Phases, item.node.ID)
		result.Updated = append(result.Updated, updated)
		nodeLog.Debug("node updated in batch", "status", updated.Status)
	}
	result.Document = out

	switch {
	case len(result.Updated) == 0:
		log.Info("batch finished without updates", "failed", len(result.Failed))
		return result, nil
	case opts.DryRun || out == doc:
		log.Info("batch finished without write", "updated", len(result.Updated), "dry_run", opts.DryRun)
		return result, nil
	}

	if err := s.store.Write(ctx, ref, out); err != nil {
		log.Error("batch write failed", "updated", len(result.Updated), "error", err)
		return result, err
	}
	result.Written = true
	log.Info("batch written", "updated", len(result.Updated), "failed", len(result.Failed))
	return result, nil
}

// runAction calls fn and turns a panic into an error.
func runAction(ctx context.Context, fn func(context.Context) (mutate.NodeUpdate, error)) (mutate.NodeUpdate, error) {
	var (
		upd mutate.NodeUpdate
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { upd, err = fn(ctx) })
	if r := pc.Recovered(); r != nil {
		return mutate.NodeUpdate{}, errors.NewMutationError("node action panicked", r.AsError())
	}
	return upd, err
}

// DispatchOptions configures Dispatch.
type DispatchOptions struct {
	// Filter is a glob over node ids, such as "2.*". Empty selects all.
	Filter string
	// Limit caps the number of nodes dispatched. Zero means no cap.
	Limit int
	// Repo is the "owner/repo" plan issues are created in. Empty uses the
	// roadmap's own repository.
	Repo        string
	Labels      []string
	TitlePrefix string
	DryRun      bool
}

// Dispatch creates a plan issue for every pending unblocked node and
// records each one as planning with its plan reference, in one batch.
func (s *Service) Dispatch(ctx context.Context, ref issue.Ref, opts DispatchOptions) (*BatchResult, error) {
	var match glob.Glob
	if opts.Filter != "" {
		g, err := glob.Compile(opts.Filter, '.')
		if err != nil {
			return nil, errors.NewValidationError("invalid node filter").
				WithField("filter").
				WithValue(opts.Filter).
				WithCause(err)
		}
		match = g
	}

	owner, repo, err := s.dispatchRepo(ref, opts)
	if err != nil {
		return nil, err
	}
	if s.creator == nil && !opts.DryRun {
		return nil, errors.NewStoreError("dispatch needs a store that can create issues", errors.ErrProviderUnavailable).
			WithRef(ref.String()).
			WithOperation("create")
	}

	selector := func(v *View) ([]roadmap.Node, error) {
		var nodes []roadmap.Node
		for _, n := range v.Graph.PendingUnblockedNodes() {
			if match != nil && !match.Match(n.ID) {
				continue
			}
			nodes = append(nodes, n)
			if opts.Limit > 0 && len(nodes) == opts.Limit {
				break
			}
		}
		return nodes, nil
	}

	action := func(ctx context.Context, n roadmap.Node) (mutate.NodeUpdate, error) {
		if opts.DryRun {
			return mutate.NodeUpdate{Status: mutate.Set(string(roadmap.StatusPlanning))}, nil
		}
		created, err := s.creator.CreateIssue(ctx, issue.IssueOptions{
			Owner:  owner,
			Repo:   repo,
			Title:  planTitle(opts.TitlePrefix, n),
			Body:   planBody(ref, n),
			Labels: opts.Labels,
		})
		if err != nil {
			return mutate.NodeUpdate{}, err
		}
		return mutate.NodeUpdate{
			Status: mutate.Set(string(roadmap.StatusPlanning)),
			Plan:   mutate.Set(planRef(ref, created)),
		}, nil
	}

	return s.Batch(ctx, ref, selector, action, BatchOptions{DryRun: opts.DryRun})
}

func (s *Service) dispatchRepo(ref issue.Ref, opts DispatchOptions) (string, string, error) {
	slug := opts.Repo
	if slug == "" && ref.IsGitHub() {
		slug = ref.RepoSlug()
	}
	owner, repo, ok := strings.Cut(slug, "/")
	if (!ok || owner == "" || repo == "") && !opts.DryRun {
		return "", "", errors.NewValidationError("dispatch needs a repository for plan issues").
			WithField("dispatch.repo").
			WithValue(slug)
	}
	return owner, repo, nil
}

func planTitle(prefix string, n roadmap.Node) string {
	title := n.ID + ": " + n.Description
	if prefix != "" {
		title = strings.TrimRight(prefix, " ") + " " + title
	}
	return title
}

func planBody(ref issue.Ref, n roadmap.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan for step %s of %s.\n\n", n.ID, ref)
	fmt.Fprintf(&b, "> %s\n", n.Description)
	if len(n.DependsOn) > 0 {
		fmt.Fprintf(&b, "\nDepends on: %s\n", strings.Join(n.DependsOn, ", "))
	}
	return b.String()
}

// planRef renders a created issue as a plan reference, short when it lives
// in the roadmap's repository.
func planRef(ref issue.Ref, created issue.Ref) string {
	if ref.IsGitHub() && ref.Owner == created.Owner && ref.Repo == created.Repo {
		return "#" + strconv.Itoa(created.Number)
	}
	return created.RepoSlug() + "#" + strconv.Itoa(created.Number)
}
