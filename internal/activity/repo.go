package activity

import "context"

// Repo persists activity events.
type Repo interface {
	Create(ctx context.Context, ev Event) error
	// ListByUser returns at most limit events for userID, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Event, error)
}
