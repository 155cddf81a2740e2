package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// BlobStore is the seam to external binary storage: store bytes, get back an
// opaque locator to record on the document. The real backend lives outside
// this engine.
type BlobStore interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
}

// InMemoryBlobStore backs tests and local development.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryBlobStore) Store(_ context.Context, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	locator := "blob://" + uuid.NewString()
	s.blobs[locator] = append([]byte(nil), data...)
	return locator, nil
}

// Fetch retrieves stored bytes; tests use it to check round-trips.
func (s *InMemoryBlobStore) Fetch(_ context.Context, locator string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[locator]
	return data, ok
}
