package health

import (
	"context"
	"database/sql"
	"time"

	"docstore-backend/internal/shared/storage/object"
)

const checkTimeout = 2 * time.Second

// Report is the /healthz payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service checks the backing dependencies.
type Service struct {
	DB    *sql.DB
	Store object.Store
}

// NewService constructs a health service. db may be nil.
func NewService(db *sql.DB, store object.Store) *Service {
	return &Service{DB: db, Store: store}
}

// Status probes storage and, when configured, the database.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rep := Report{OK: true, Checks: map[string]string{}}
	if s.Store != nil {
		if _, err := s.Store.ListUsers(ctx); err != nil {
			rep.OK = false
			rep.Checks["storage"] = err.Error()
		} else {
			rep.Checks["storage"] = "ok"
		}
	}
	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			rep.OK = false
			rep.Checks["database"] = err.Error()
		} else {
			rep.Checks["database"] = "ok"
		}
	}
	return rep
}
