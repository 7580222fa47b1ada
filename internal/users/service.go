package users

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"docstore-backend/internal/activity"
	"docstore-backend/internal/shared/storage/object"
	"docstore-backend/internal/shared/util"
)

var (
	// ErrInvalidInput marks an unusable userId.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when the user has no storage namespace.
	ErrNotFound = errors.New("user not found")
)

// Service manages user namespaces in the object store.
type Service struct {
	Store    object.Store
	Locks    *object.UserLocks
	Activity *activity.Service
}

// NewService wires a Service. Pass the same UserLocks as the documents
// service so deletes serialise with uploads.
func NewService(store object.Store, locks *object.UserLocks, recorder *activity.Service) *Service {
	if locks == nil {
		locks = object.NewUserLocks()
	}
	return &Service{Store: store, Locks: locks, Activity: recorder}
}

// List returns every user that has a namespace, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the user's namespace and everything in it.
func (s *Service) Delete(ctx context.Context, requestID, userID string) error {
	if err := util.ValidateSegment(userID); err != nil {
		return fmt.Errorf("%w: userId: %v", ErrInvalidInput, err)
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	err := s.Store.DeleteUser(ctx, userID)
	switch {
	case errors.Is(err, object.ErrNotFound):
		return ErrNotFound
	case err != nil:
		s.record(ctx, requestID, userID, activity.OutcomeFailed)
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.record(ctx, requestID, userID, activity.OutcomeSuccess)
	return nil
}

func (s *Service) record(ctx context.Context, requestID, userID, outcome string) {
	if s.Activity == nil {
		return
	}
	s.Activity.Record(ctx, activity.Event{
		RequestID: requestID,
		UserID:    userID,
		Action:    activity.ActionDeleteUser,
		Outcome:   outcome,
	})
}
