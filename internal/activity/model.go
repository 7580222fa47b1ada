package activity

import "time"

// Actions recorded in the activity feed.
const (
	ActionUpload         = "document.upload"
	ActionDeleteDocument = "document.delete"
	ActionDeleteUser     = "user.delete"
)

// Outcomes of a recorded action.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Event is one storage mutation performed for a user.
type Event struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Files     []string  `json:"files"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"createdAt"`
}
