package activity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateEncodesFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	ev := Event{
		ID:        "ev-1",
		RequestID: "req-1",
		UserID:    "alice",
		Action:    ActionUpload,
		Files:     []string{"1_a.txt", "2_b.txt"},
		Outcome:   OutcomeSuccess,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO activity_events").
		WithArgs(ev.ID, ev.RequestID, ev.UserID, ev.Action, []byte(`["1_a.txt","2_b.txt"]`), ev.Outcome, ev.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), ev); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "request_id", "user_id", "action", "files", "outcome", "created_at"}).
		AddRow("ev-2", "", "alice", ActionDeleteUser, []byte(`[]`), OutcomeSuccess, created).
		AddRow("ev-1", "req-1", "alice", ActionUpload, []byte(`["1_a.txt"]`), OutcomeSuccess, created.Add(-time.Minute))
	mock.ExpectQuery("SELECT id, request_id, user_id, action, files, outcome, created_at FROM activity_events").
		WithArgs("alice", 20).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	events, err := repo.ListByUser(context.Background(), "alice", 20)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "ev-2" || len(events[0].Files) != 0 || events[0].Files == nil {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if len(events[1].Files) != 1 || events[1].Files[0] != "1_a.txt" {
		t.Fatalf("unexpected files %+v", events[1].Files)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
