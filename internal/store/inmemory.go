package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
)

// MemoryTopicStore keeps topics in a map. It backs tests, dry runs and
// the CLI when no database is configured. Topics are copied on the way in
// and out so callers never share state with the store.
type MemoryTopicStore struct {
	mu      sync.RWMutex
	topics  map[string]*domain.Topic
	upserts int
}

func NewMemoryTopicStore() *MemoryTopicStore {
	return &MemoryTopicStore{topics: make(map[string]*domain.Topic)}
}

func (s *MemoryTopicStore) FetchByID(_ context.Context, id string) (*domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := t.Clone()
	c.MarkClean()
	return c, nil
}

func (s *MemoryTopicStore) BulkUpsert(ctx context.Context, topics []*domain.Topic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range topics {
		if t == nil || t.ID == "" {
			continue
		}
		c := t.Clone()
		c.MarkClean()
		s.topics[t.ID] = c
	}
	s.upserts++
	return nil
}

// IDs returns the stored ids in sorted order.
func (s *MemoryTopicStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.topics))
	for id := range s.topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *MemoryTopicStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.topics)
}

// Upserts counts BulkUpsert calls.
func (s *MemoryTopicStore) Upserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}
