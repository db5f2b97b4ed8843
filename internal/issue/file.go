package issue

import (
	"context"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// FileStore implements Store for local markdown files. Writes replace the
// file atomically so a concurrent reader never sees a partial document.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Fetch reads the file.
func (f *FileStore) Fetch(ctx context.Context, ref Ref) (string, error) {
	if err := checkFileRef(ref); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		cause := err
		if os.IsNotExist(err) {
			cause = errors.Join(errors.ErrIssueNotFound, err)
		}
		return "", errors.NewStoreError("read failed", cause).
			WithRef(ref.String()).
			WithOperation("fetch")
	}
	return string(data), nil
}

// Write replaces the file contents.
func (f *FileStore) Write(ctx context.Context, ref Ref, doc string) error {
	if err := checkFileRef(ref); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := atomic.WriteFile(ref.Path, strings.NewReader(doc)); err != nil {
		return errors.NewStoreError("write failed", err).
			WithRef(ref.String()).
			WithOperation("write")
	}
	return nil
}

func checkFileRef(ref Ref) error {
	if ref.Kind != KindFile || ref.Path == "" {
		return errors.NewStoreError("not a file reference", errors.ErrInvalidRef).WithRef(ref.String())
	}
	return nil
}

var _ Store = (*FileStore)(nil)
