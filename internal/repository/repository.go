package repository

import (
	"context"
	"errors"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

var ErrNotFound = errors.New("record not found")

// Repository persists users, emotion summaries and counseling sessions.
// Conversation text is never stored.
type Repository interface {
	CreateUser(ctx context.Context, user counseling.User) (counseling.User, error)
	GetUser(ctx context.Context, id string) (counseling.User, error)

	SaveSummary(ctx context.Context, record summary.Record) (summary.Record, error)
	GetSummary(ctx context.Context, id string) (summary.Record, error)
	ListSummariesByUser(ctx context.Context, userID string) ([]summary.Record, error)

	CreateCounselingSession(ctx context.Context, session counseling.Session) (counseling.Session, error)
	GetCounselingSession(ctx context.Context, id string) (counseling.Session, error)
	ListCounselingSessionsByUser(ctx context.Context, userID string) ([]counseling.Session, error)
	ListCounselingSessions(ctx context.Context) ([]counseling.Session, error)
	UpdateCounselingStatusByMeeting(ctx context.Context, meetingID string, status counseling.Status) error
}
