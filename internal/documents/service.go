package documents

import (
	"context"
	"errors"
	"fmt"
	"io"

	"docstore-backend/internal/activity"
	"docstore-backend/internal/shared/storage/object"
	"docstore-backend/internal/shared/util"
)

// Part is one uploaded file.
type Part struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// DeleteResult splits requested names by outcome.
type DeleteResult struct {
	Deleted  []string
	NotFound []string
}

// Service performs document operations against the object store.
type Service struct {
	Store    object.Store
	Locks    *object.UserLocks
	Activity *activity.Service
}

// NewService wires a Service. recorder may be nil.
func NewService(store object.Store, locks *object.UserLocks, recorder *activity.Service) *Service {
	if locks == nil {
		locks = object.NewUserLocks()
	}
	return &Service{Store: store, Locks: locks, Activity: recorder}
}

// Upload stores every part for userID and returns the stored names in
// order. Parts saved before a failure stay in place.
func (s *Service) Upload(ctx context.Context, requestID, userID string, parts []Part) ([]string, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return nil, fmt.Errorf("%w: userId: %v", ErrInvalidInput, err)
	}
	for _, p := range parts {
		if _, err := util.SanitizeFileName(p.Name); err != nil {
			return nil, fmt.Errorf("%w: file name %q: %v", ErrInvalidInput, p.Name, err)
		}
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	stored := make([]string, 0, len(parts))
	for _, p := range parts {
		name, err := s.save(ctx, userID, p)
		if err != nil {
			s.record(ctx, requestID, userID, activity.ActionUpload, stored, activity.OutcomeFailed)
			return stored, err
		}
		stored = append(stored, name)
	}
	s.record(ctx, requestID, userID, activity.ActionUpload, stored, activity.OutcomeSuccess)
	return stored, nil
}

func (s *Service) save(ctx context.Context, userID string, p Part) (string, error) {
	rc, err := p.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", p.Name, err)
	}
	defer rc.Close()

	name, err := s.Store.Save(ctx, userID, p.Name, rc)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSegment) {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("save %q: %w", p.Name, err)
	}
	return name, nil
}

// List returns the entries stored for userID. An unknown user has none.
func (s *Service) List(ctx context.Context, userID string) ([]string, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return nil, fmt.Errorf("%w: userId: %v", ErrInvalidInput, err)
	}
	names, err := s.Store.ListDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Delete removes each named document independently. Missing names are
// reported, not treated as failure. All names are validated before
// anything is removed.
func (s *Service) Delete(ctx context.Context, requestID, userID string, names []string) (DeleteResult, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return DeleteResult{}, fmt.Errorf("%w: userId: %v", ErrInvalidInput, err)
	}
	for _, name := range names {
		if err := util.ValidateSegment(name); err != nil {
			return DeleteResult{}, fmt.Errorf("%w: file %q: %v", ErrInvalidInput, name, err)
		}
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	res := DeleteResult{Deleted: []string{}, NotFound: []string{}}
	for _, name := range names {
		err := s.Store.DeleteDocument(ctx, userID, name)
		switch {
		case err == nil:
			res.Deleted = append(res.Deleted, name)
		case errors.Is(err, object.ErrNotFound):
			res.NotFound = append(res.NotFound, name)
		default:
			s.record(ctx, requestID, userID, activity.ActionDeleteDocument, res.Deleted, activity.OutcomeFailed)
			return res, fmt.Errorf("delete %q: %w", name, err)
		}
	}

	outcome := activity.OutcomeSuccess
	if len(res.NotFound) > 0 {
		outcome = activity.OutcomePartial
	}
	if len(res.Deleted) > 0 {
		s.record(ctx, requestID, userID, activity.ActionDeleteDocument, res.Deleted, outcome)
	}
	return res, nil
}

func (s *Service) record(ctx context.Context, requestID, userID, action string, files []string, outcome string) {
	if s.Activity == nil {
		return
	}
	s.Activity.Record(ctx, activity.Event{
		RequestID: requestID,
		UserID:    userID,
		Action:    action,
		Files:     append([]string(nil), files...),
		Outcome:   outcome,
	})
}
