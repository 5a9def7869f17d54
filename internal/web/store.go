package web

import (
	"sync"
	"time"
)

// maxArtifacts bounds how many finished batches stay downloadable.
const maxArtifacts = 32

type artifact struct {
	Structured []byte
	Raw        []byte
	Created    time.Time
}

// artifactStore keeps export files of recent batches in memory. The oldest
// entry is evicted once the store is full.
type artifactStore struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]artifact
}

func newArtifactStore(limit int) *artifactStore {
	if limit <= 0 {
		limit = maxArtifacts
	}
	return &artifactStore{limit: limit, items: make(map[string]artifact)}
}

func (s *artifactStore) put(id string, a artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = a
	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}

func (s *artifactStore) get(id string) (artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	return a, ok
}

func (s *artifactStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
