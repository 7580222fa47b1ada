package usage

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Usage, error) {
	u, err := scanUsage(s.DB.QueryRowContext(ctx, `
SELECT uploaded, deleted, stored, last_event_at FROM user_usage WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Usage{UserID: userID}, nil
	}
	if err != nil {
		return Usage{}, err
	}
	u.UserID = userID
	return u, nil
}

// Apply records the event id and updates the counters in one transaction.
// A replayed event id leaves the counters untouched.
func (s *pgStore) Apply(ctx context.Context, c Change) (u Usage, applied bool, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, false, err
	}
	defer func() {
		if err != nil || !applied {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO usage_applied_events (event_id, user_id) VALUES ($1, $2)
ON CONFLICT (event_id) DO NOTHING`, c.EventID, c.UserID)
	if err != nil {
		return Usage{}, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return Usage{}, false, err
	}

	u, err = scanUsage(tx.QueryRowContext(ctx, `
SELECT uploaded, deleted, stored, last_event_at FROM user_usage WHERE user_id = $1 FOR UPDATE`, c.UserID))
	if errors.Is(err, sql.ErrNoRows) {
		u, err = Usage{}, nil
	}
	if err != nil {
		return Usage{}, false, err
	}
	u.UserID = c.UserID
	if inserted == 0 {
		return u, false, nil
	}

	u = u.apply(c)
	if _, err = tx.ExecContext(ctx, `
INSERT INTO user_usage (user_id, uploaded, deleted, stored, last_event_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    uploaded = EXCLUDED.uploaded,
    deleted = EXCLUDED.deleted,
    stored = EXCLUDED.stored,
    last_event_at = EXCLUDED.last_event_at`,
		c.UserID, u.Uploaded, u.Deleted, u.Stored, *u.LastEventAt); err != nil {
		return Usage{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, false, err
	}
	return u, true, nil
}

func scanUsage(row *sql.Row) (Usage, error) {
	var (
		u    Usage
		last sql.NullTime
	)
	if err := row.Scan(&u.Uploaded, &u.Deleted, &u.Stored, &last); err != nil {
		return Usage{}, err
	}
	if last.Valid {
		t := last.Time.UTC()
		u.LastEventAt = &t
	}
	return u, nil
}
