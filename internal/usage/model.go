package usage

import (
	"time"

	"docstore-backend/internal/activity"
)

// Usage summarises the document activity applied for one user.
type Usage struct {
	UserID      string     `json:"userId"`
	Uploaded    int        `json:"uploaded"`
	Deleted     int        `json:"deleted"`
	Stored      int        `json:"stored"`
	LastEventAt *time.Time `json:"lastEventAt"`
}

// Change is one activity message reduced to what the counters need.
type Change struct {
	EventID string
	UserID  string
	Action  string
	Outcome string
	Files   int
	At      time.Time
}

func (u Usage) apply(c Change) Usage {
	switch c.Action {
	case activity.ActionUpload:
		u.Uploaded += c.Files
		u.Stored += c.Files
	case activity.ActionDeleteDocument:
		u.Deleted += c.Files
		u.Stored -= c.Files
	case activity.ActionDeleteUser:
		// A failed namespace delete leaves the documents in place.
		if c.Outcome != activity.OutcomeFailed {
			u.Deleted += u.Stored
			u.Stored = 0
		}
	}
	if u.Stored < 0 {
		u.Stored = 0
	}
	at := c.At.UTC()
	if u.LastEventAt == nil || at.After(*u.LastEventAt) {
		u.LastEventAt = &at
	}
	return u
}

func knownAction(action string) bool {
	switch action {
	case activity.ActionUpload, activity.ActionDeleteDocument, activity.ActionDeleteUser:
		return true
	default:
		return false
	}
}
