package activity

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for dev and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewMemoryRepo creates an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{events: make(map[string][]Event)}
}

// Create stores ev.
func (r *MemoryRepo) Create(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Files = append([]string(nil), ev.Files...)
	r.events[ev.UserID] = append(r.events[ev.UserID], ev)
	return nil
}

// ListByUser returns the newest events first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	r.mu.RLock()
	src := r.events[userID]
	out := make([]Event, len(src))
	copy(out, src)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
