package usage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]Usage
	applied map[string]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data:    make(map[string]Usage),
		applied: make(map[string]struct{}),
	}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[userID]
	if !ok {
		return Usage{UserID: userID}, nil
	}
	return u, nil
}

func (s *memoryStore) Apply(ctx context.Context, c Change) (Usage, bool, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[c.UserID]
	if !ok {
		u = Usage{UserID: c.UserID}
	}
	if _, seen := s.applied[c.EventID]; seen {
		return u, false, nil
	}
	u = u.apply(c)
	s.data[c.UserID] = u
	s.applied[c.EventID] = struct{}{}
	return u, true, nil
}
