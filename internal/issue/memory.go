package issue

import (
	"context"
	"sync"

	"github.com/Iron-Ham/roadmap/internal/errors"
)

// MemoryStore keeps documents in memory and counts calls. It backs tests and
// dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]string
	fetches int
	writes  int

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

// NewMemoryStore creates a store holding the given documents, keyed by
// Ref.String().
func NewMemoryStore(docs map[string]string) *MemoryStore {
	m := &MemoryStore{docs: make(map[string]string, len(docs))}
	for k, v := range docs {
		m.docs[k] = v
	}
	return m
}

// Put stores doc under ref without counting a write.
func (m *MemoryStore) Put(ref Ref, doc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[ref.String()] = doc
}

// Get returns the stored document without counting a fetch.
func (m *MemoryStore) Get(ref Ref) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[ref.String()]
	return doc, ok
}

// Fetch implements Store.
func (m *MemoryStore) Fetch(_ context.Context, ref Ref) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	doc, ok := m.docs[ref.String()]
	if !ok {
		return "", errors.NewStoreError("no such document", errors.ErrIssueNotFound).
			WithRef(ref.String()).
			WithOperation("fetch")
	}
	return doc, nil
}

// Write implements Store.
func (m *MemoryStore) Write(_ context.Context, ref Ref, doc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.docs[ref.String()] = doc
	return nil
}

// Fetches returns the number of Fetch calls.
func (m *MemoryStore) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// Writes returns the number of Write calls.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

var _ Store = (*MemoryStore)(nil)
