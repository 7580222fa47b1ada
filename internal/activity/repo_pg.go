package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts an event.
func (r *PGRepo) Create(ctx context.Context, ev Event) error {
	const query = `
INSERT INTO activity_events (id, request_id, user_id, action, files, outcome, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	files := ev.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		ev.ID,
		ev.RequestID,
		ev.UserID,
		ev.Action,
		filesJSON,
		ev.Outcome,
		ev.CreatedAt,
	)
	return err
}

// ListByUser returns the newest events for a user.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	const query = `
SELECT id, request_id, user_id, action, files, outcome, created_at
FROM activity_events
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var filesJSON []byte
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.UserID, &ev.Action, &filesJSON, &ev.Outcome, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(filesJSON) > 0 {
			if err := json.Unmarshal(filesJSON, &ev.Files); err != nil {
				return nil, fmt.Errorf("decode files for event %s: %w", ev.ID, err)
			}
		}
		if ev.Files == nil {
			ev.Files = []string{}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
