package usage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"docstore-backend/internal/queue"
	"docstore-backend/internal/shared/util"
)

type store interface {
	Get(ctx context.Context, userID string) (Usage, error)
	Apply(ctx context.Context, c Change) (Usage, bool, error)
}

// Service maintains per-user document counters fed by activity messages.
type Service struct {
	store store
	Now   func() time.Time
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore(), Now: time.Now}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(db *sql.DB) *Service {
	return &Service{store: NewPGStore(db), Now: time.Now}
}

// Get returns the counters for a user. Unknown users report zeros.
func (s *Service) Get(ctx context.Context, userID string) (Usage, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return Usage{}, fmt.Errorf("%w: userId: %v", ErrInvalidInput, err)
	}
	return s.store.Get(ctx, userID)
}

// Apply folds one activity message into the counters. The bool is false
// when the event was already applied.
func (s *Service) Apply(ctx context.Context, msg queue.Message) (Usage, bool, error) {
	c, err := s.change(msg)
	if err != nil {
		return Usage{}, false, err
	}
	return s.store.Apply(ctx, c)
}

// Handle adapts Apply to queue.HandlerFunc.
func (s *Service) Handle(ctx context.Context, msg queue.Message) error {
	_, _, err := s.Apply(ctx, msg)
	return err
}

func (s *Service) change(msg queue.Message) (Change, error) {
	if strings.TrimSpace(msg.EventID) == "" {
		return Change{}, fmt.Errorf("%w: missing eventId", ErrInvalidMessage)
	}
	if err := util.ValidateSegment(msg.UserID); err != nil {
		return Change{}, fmt.Errorf("%w: userId: %v", ErrInvalidMessage, err)
	}
	if !knownAction(msg.Action) {
		return Change{}, fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, msg.Action)
	}
	at, err := time.Parse(time.RFC3339, msg.EnqueuedAt)
	if err != nil {
		at = s.Now()
	}
	return Change{
		EventID: msg.EventID,
		UserID:  msg.UserID,
		Action:  msg.Action,
		Outcome: msg.Outcome,
		Files:   len(msg.Files),
		At:      at,
	}, nil
}
