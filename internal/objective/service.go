// Package objective ties the roadmap core to the issue store. Every
// operation fetches the hosting document once, runs pure functions over the
// text, and writes at most once.
package objective

import (
	"context"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/graph"
	"github.com/Iron-Ham/roadmap/internal/issue"
	"github.com/Iron-Ham/roadmap/internal/logging"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
	"github.com/Iron-Ham/roadmap/internal/validate"
)

// Service runs roadmap operations against documents in a Store.
type Service struct {
	store   issue.Store
	logger  *logging.Logger
	creator issue.Creator
	closer  issue.Closer
}

// Option configures a Service.
type Option func(*Service)

// WithCreator sets the issue creator used by Dispatch.
func WithCreator(c issue.Creator) Option {
	return func(s *Service) { s.creator = c }
}

// WithCloser sets the issue closer used to close finished plan issues.
func WithCloser(c issue.Closer) Option {
	return func(s *Service) { s.closer = c }
}

// NewService creates a Service. A nil logger discards logs. When store also
// creates or closes issues it is used for that unless an option overrides it.
func NewService(store issue.Store, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Service{store: store, logger: logger}
	if c, ok := store.(issue.Creator); ok {
		s.creator = c
	}
	if c, ok := store.(issue.Closer); ok {
		s.closer = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is a parsed roadmap with its graph.
type View struct {
	Ref      issue.Ref
	Document string
	Hash     string
	Result   roadmap.Result
	Graph    *graph.Graph
}

// Snapshot returns the JSON view of the graph.
func (v *View) Snapshot() graph.Snapshot {
	return v.Graph.Snapshot()
}

// Phases returns the roadmap phases with names.
func (v *View) Phases() []roadmap.Phase {
	return v.Result.Phases
}

// Show fetches and parses a roadmap.
func (s *Service) Show(ctx context.Context, ref issue.Ref) (*View, error) {
	doc, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Load(ref, doc)
}

// Load parses doc as the roadmap at ref.
func Load(ref issue.Ref, doc string) (*View, error) {
	res := roadmap.Parse(doc)
	if !res.Found() {
		return nil, errors.NewNotFoundError("roadmap", ref.String()).WithCause(errors.ErrRoadmapNotFound)
	}
	g, err := graph.Build(res.Phases)
	if err != nil {
		return nil, err
	}
	return &View{
		Ref:      ref,
		Document: doc,
		Hash:     mutate.Hash(doc),
		Result:   res,
		Graph:    g,
	}, nil
}

// Validate fetches a roadmap and runs the semantic checks.
func (s *Service) Validate(ctx context.Context, ref issue.Ref) (*validate.Result, error) {
	doc, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := validate.Validate(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "validate %s", ref)
	}

	log := s.logger.WithObjective(ref.String())
	if result.Passed {
		log.Info("roadmap validated", "checks", len(result.Checks))
	} else {
		log.Warn("roadmap validation failed", "failed", len(result.Failed()))
	}
	return result, nil
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	// ClosePlan closes the plan issue a node referenced when the update
	// marks it done.
	ClosePlan bool
	// DryRun computes the new document without writing it.
	DryRun bool
}

// UpdateResult reports a single node update.
type UpdateResult struct {
	NodeID     string       `json:"node_id"`
	Before     roadmap.Node `json:"before"`
	After      roadmap.Node `json:"after"`
	Changed    bool         `json:"changed"`
	Written    bool         `json:"written"`
	ClosedPlan string       `json:"closed_plan,omitempty"`
	Document   string       `json:"-"`
}

// Update applies one surgical node update: one fetch and, when the document
// changed, one write.
func (s *Service) Update(ctx context.Context, ref issue.Ref, id string, upd mutate.NodeUpdate, opts UpdateOptions) (*UpdateResult, error) {
	log := s.logger.WithObjective(ref.String()).WithNode(id)

	doc, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	before, _ := roadmap.FindNode(roadmap.Parse(doc).Phases, id)
	out, err := mutate.UpdateNode(doc, id, upd)
	if err != nil {
		log.Warn("node update rejected", "update", upd.String(), "error", err)
		return nil, err
	}
	after, _ := roadmap.FindNode(roadmap.Parse(out).Phases, id)

	result := &UpdateResult{
		NodeID:   id,
		Before:   before,
		After:    after,
		Changed:  out != doc,
		Document: out,
	}
	if !result.Changed || opts.DryRun {
		log.Debug("node update not written", "changed", result.Changed, "dry_run", opts.DryRun)
		return result, nil
	}

	if err := s.store.Write(ctx, ref, out); err != nil {
		log.Error("write failed", "error", err)
		return nil, err
	}
	result.Written = true
	log.Info("node updated", "status", after.Status, "plan", after.Plan, "pr", after.PR)

	if opts.ClosePlan && after.Status == roadmap.StatusDone && before.Plan != "" {
		result.ClosedPlan = s.closePlan(ctx, ref, before.Plan, log)
	}
	return result, nil
}

// closePlan closes the plan issue behind a plan reference. Failures are
// logged and never fail the update that triggered them.
func (s *Service) closePlan(ctx context.Context, ref issue.Ref, plan string, log *logging.Logger) string {
	if s.closer == nil || !ref.IsGitHub() {
		return ""
	}
	planRef, err := issue.ParseRef(plan, issue.RefOptions{DefaultRepo: ref.RepoSlug()})
	if err != nil || planRef.Kind != issue.KindIssue {
		log.Debug("plan reference is not an issue", "plan", plan)
		return ""
	}
	if err := s.closer.CloseIssue(ctx, planRef); err != nil {
		log.Warn("failed to close plan issue", "plan", planRef.String(), "error", err)
		return ""
	}
	log.Info("closed plan issue", "plan", planRef.String())
	return planRef.String()
}
