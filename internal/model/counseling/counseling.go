package counseling

import "time"

// Status tracks the lifecycle of a scheduled counseling meeting.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// User is an anonymous participant identified by a nickname.
type User struct {
	ID        string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a counseling meeting booked with the video provider.
type Session struct {
	ID         string    `json:"session_id"`
	UserID     string    `json:"user_id,omitempty"`
	SummaryID  string    `json:"summary_id,omitempty"`
	MeetingID  string    `json:"webex_meeting_id,omitempty"`
	MeetingURL string    `json:"meeting_url,omitempty"`
	Urgent     bool      `json:"urgent"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
