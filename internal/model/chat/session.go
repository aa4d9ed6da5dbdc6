package chat

import "time"

// Session captures a transient anonymous conversation. It only lives in
// process memory and is dropped once summarized or cleared.
type Session struct {
	ID        string    `json:"id"`
	Turns     []Turn    `json:"turns"`
	Escalated bool      `json:"escalated"`
	CreatedAt time.Time `json:"createdAt"`
}
