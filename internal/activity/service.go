package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docstore-backend/internal/queue"
	"docstore-backend/internal/shared/metrics"
	"docstore-backend/internal/shared/telemetry"
)

// List limits for the activity feed.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const recordTimeout = 5 * time.Second

// Service records storage mutations. Recording is best-effort: failures
// are logged and counted, never returned to the request.
type Service struct {
	Repo  Repo
	Queue queue.Client
	Now   func() time.Time
	NewID func() string
}

// NewService wires a Service. queueClient may be nil.
func NewService(repo Repo, queueClient queue.Client) *Service {
	return &Service{
		Repo:  repo,
		Queue: queueClient,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Record persists ev and publishes it when a queue is configured. It
// keeps going after the caller's context is cancelled.
func (s *Service) Record(ctx context.Context, ev Event) {
	if s == nil || s.Repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if ev.ID == "" {
		ev.ID = s.NewID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.Now().UTC()
	}
	if ev.Files == nil {
		ev.Files = []string{}
	}

	if err := s.Repo.Create(ctx, ev); err != nil {
		s.fail("activity.persist_failed", ev, err)
		return
	}
	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		EventID:    ev.ID,
		Action:     ev.Action,
		UserID:     ev.UserID,
		Files:      ev.Files,
		Outcome:    ev.Outcome,
		RequestID:  ev.RequestID,
		EnqueuedAt: s.Now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		s.fail("activity.publish_failed", ev, err)
	}
}

// List returns the newest events for userID. limit is clamped to
// [1, MaxListLimit]; zero or less means DefaultListLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Event, error) {
	return s.Repo.ListByUser(ctx, userID, ClampLimit(limit))
}

// ClampLimit normalises a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func (s *Service) fail(msg string, ev Event, err error) {
	metrics.IncActivityFailure()
	telemetry.Error(msg, map[string]any{
		"event_id":   ev.ID,
		"request_id": ev.RequestID,
		"user_id":    ev.UserID,
		"action":     ev.Action,
		"err":        err,
	})
}
