package objective

import (
	"context"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/issue"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// RewriteOptions configures a full-body rewrite.
type RewriteOptions struct {
	Updates           []mutate.Update
	Sections          map[string]string
	CollapseCompleted bool

	// ExpectHash fails the rewrite with ErrDocumentChanged unless the
	// fetched document has this hash.
	ExpectHash string
	// IfUnchanged re-fetches the document right before writing and fails
	// with ErrDocumentChanged if it moved since it was read. Without it a
	// rewrite is last-write-wins.
	IfUnchanged bool

	// Mirror is a second document whose roadmap is regenerated from the
	// rewritten one, such as a comment that repeats the table.
	Mirror *issue.Ref

	DryRun bool
}

// RewriteResult reports a full-body rewrite.
type RewriteResult struct {
	PreviousHash  string `json:"previous_hash"`
	Hash          string `json:"hash"`
	Changed       bool   `json:"changed"`
	Written       bool   `json:"written"`
	MirrorWritten bool   `json:"mirror_written"`
	Document      string `json:"-"`
}

// Rewrite regenerates the roadmap section of a document, applying updates
// and prose section replacements in the same pass.
func (s *Service) Rewrite(ctx context.Context, ref issue.Ref, opts RewriteOptions) (*RewriteResult, error) {
	log := s.logger.WithObjective(ref.String())

	doc, err := s.store.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	read := mutate.Hash(doc)
	if opts.ExpectHash != "" && opts.ExpectHash != read {
		return nil, changed(ref, "document does not match the expected hash")
	}

	mopts := mutate.RewriteOptions{
		CollapseCompleted: opts.CollapseCompleted,
		Sections:          opts.Sections,
	}
	if len(opts.Updates) > 0 {
		mopts.Transform = mutate.ApplyUpdates(opts.Updates)
	}
	out, err := mutate.Rewrite(doc, mopts)
	if err != nil {
		log.Warn("rewrite rejected", "error", err)
		return nil, err
	}

	result := &RewriteResult{
		PreviousHash: read,
		Hash:         mutate.Hash(out),
		Changed:      out != doc,
		Document:     out,
	}
	if opts.DryRun {
		return result, nil
	}

	if result.Changed {
		if opts.IfUnchanged {
			current, err := s.store.Fetch(ctx, ref)
			if err != nil {
				return nil, err
			}
			if mutate.Hash(current) != read {
				log.Warn("document changed during rewrite", "read_hash", read)
				return nil, changed(ref, "document changed since it was read")
			}
		}
		if err := s.store.Write(ctx, ref, out); err != nil {
			log.Error("write failed", "error", err)
			return nil, err
		}
		result.Written = true
		log.Info("roadmap rewritten", "hash", result.Hash, "updates", len(opts.Updates), "sections", len(opts.Sections))
	}

	if opts.Mirror != nil {
		written, err := s.syncMirror(ctx, *opts.Mirror, out, opts.CollapseCompleted)
		if err != nil {
			return result, errors.Wrapf(err, "sync mirror %s", opts.Mirror)
		}
		result.MirrorWritten = written
	}
	return result, nil
}

// syncMirror replaces the roadmap in mirror with the one in source.
func (s *Service) syncMirror(ctx context.Context, mirror issue.Ref, source string, collapse bool) (bool, error) {
	doc, err := s.store.Fetch(ctx, mirror)
	if err != nil {
		return false, err
	}
	phases := roadmap.Parse(source).Phases
	out, err := mutate.Rewrite(doc, mutate.RewriteOptions{
		CollapseCompleted: collapse,
		Transform: func([]roadmap.Phase) ([]roadmap.Phase, error) {
			return roadmap.ClonePhases(phases), nil
		},
	})
	if err != nil {
		return false, err
	}
	if out == doc {
		return false, nil
	}
	if err := s.store.Write(ctx, mirror, out); err != nil {
		return false, err
	}
	s.logger.WithObjective(mirror.String()).Info("mirror synced")
	return true, nil
}

func changed(ref issue.Ref, msg string) error {
	return errors.NewStoreError(msg, errors.ErrDocumentChanged).
		WithRef(ref.String()).
		WithOperation("write")
}
