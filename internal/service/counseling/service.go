package counseling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/repository"
	"github.com/mindbridge/counsel/backend/internal/service/meeting"
)

const requestTitlePrefix = "[Counseling request] Counseling session - "

// Webhook events that move a counseling session forward.
const (
	EventMeetingStarted = "meeting.started"
	EventMeetingEnded   = "meeting.ended"
)

var (
	ErrInvalidRequest     = errors.New("invalid counseling request")
	ErrNotFound           = errors.New("not found")
	ErrMeetingUnavailable = errors.New("meeting provider not configured")
	ErrSessionClosed      = errors.New("counseling session already closed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request asks for a non-urgent meeting about a stored summary.
type Request struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	SummaryID string `json:"summary_id" validate:"required,uuid"`
}

// NewUser is the payload for registering an anonymous user.
type NewUser struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
	Region   string `json:"region" validate:"max=64"`
}

// Service handles users, stored summaries and booked counseling meetings.
type Service struct {
	repo     repository.Repository
	meetings meeting.Provider
}

// NewService builds the service. meetings may be nil when no provider is
// configured; requests and cancellations then fail with ErrMeetingUnavailable.
func NewService(repo repository.Repository, meetings meeting.Provider) *Service {
	return &Service{repo: repo, meetings: meetings}
}

// RegisterUser stores a new anonymous user.
func (s *Service) RegisterUser(ctx context.Context, in NewUser) (counseling.User, error) {
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Region = strings.TrimSpace(in.Region)
	if err := validate.Struct(in); err != nil {
		return counseling.User{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.repo.CreateUser(ctx, counseling.User{Nickname: in.Nickname, Region: in.Region})
}

// User returns a stored user or ErrNotFound.
func (s *Service) User(ctx context.Context, id string) (counseling.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	return user, translate(err)
}

// Summary returns a stored summary or ErrNotFound.
func (s *Service) Summary(ctx context.Context, id string) (summary.Record, error) {
	record, err := s.repo.GetSummary(ctx, id)
	return record, translate(err)
}

// SummariesByUser lists a user's summaries, newest first.
func (s *Service) SummariesByUser(ctx context.Context, userID string) ([]summary.Record, error) {
	return s.repo.ListSummariesByUser(ctx, userID)
}

// CreateRequest books a meeting for the summary's owner and records it.
func (s *Service) CreateRequest(ctx context.Context, req Request) (counseling.Session, error) {
	if err := validate.Struct(req); err != nil {
		return counseling.Session{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.meetings == nil {
		return counseling.Session{}, ErrMeetingUnavailable
	}
	if _, err := s.repo.GetSummary(ctx, req.SummaryID); err != nil {
		return counseling.Session{}, translate(err)
	}

	mt, err := s.meetings.CreateMeeting(ctx, requestTitlePrefix+req.UserID[:8], false)
	if err != nil {
		return counseling.Session{}, fmt.Errorf("create meeting: %w", err)
	}

	session, err := s.repo.CreateCounselingSession(ctx, counseling.Session{
		UserID:     req.UserID,
		SummaryID:  req.SummaryID,
		MeetingID:  mt.ID,
		MeetingURL: mt.WebLink,
		Status:     counseling.StatusScheduled,
	})
	if err != nil {
		return counseling.Session{}, fmt.Errorf("record counseling session: %w", err)
	}

	slog.InfoContext(ctx, "counseling meeting requested", "session_id", session.ID, "meeting_id", mt.ID)
	return session, nil
}

// Session returns a booked counseling session or ErrNotFound.
func (s *Service) Session(ctx context.Context, id string) (counseling.Session, error) {
	session, err := s.repo.GetCounselingSession(ctx, id)
	return session, translate(err)
}

// SessionsByUser lists a user's counseling sessions, newest first.
func (s *Service) SessionsByUser(ctx context.Context, userID string) ([]counseling.Session, error) {
	return s.repo.ListCounselingSessionsByUser(ctx, userID)
}

// CancelSession removes the meeting at the provider and marks the session
// cancelled. A meeting the provider already reports as ended is marked
// completed instead.
func (s *Service) CancelSession(ctx context.Context, id string) (counseling.Session, error) {
	session, err := s.repo.GetCounselingSession(ctx, id)
	if err != nil {
		return counseling.Session{}, translate(err)
	}
	if session.Status == counseling.StatusCompleted || session.Status == counseling.StatusCancelled {
		return counseling.Session{}, ErrSessionClosed
	}
	if s.meetings == nil {
		return counseling.Session{}, ErrMeetingUnavailable
	}

	state, err := s.meetings.MeetingStatus(ctx, session.MeetingID)
	if err != nil {
		return counseling.Session{}, fmt.Errorf("meeting status: %w", err)
	}

	status := counseling.StatusCancelled
	if state == meeting.StateEnded {
		status = counseling.StatusCompleted
	} else if err := s.meetings.EndMeeting(ctx, session.MeetingID); err != nil {
		return counseling.Session{}, fmt.Errorf("end meeting: %w", err)
	}

	if err := s.repo.UpdateCounselingStatusByMeeting(ctx, session.MeetingID, status); err != nil {
		return counseling.Session{}, translate(err)
	}

	slog.InfoContext(ctx, "counseling session closed", "session_id", session.ID, "status", status)
	session.Status = status
	return session, nil
}

// HandleMeetingEvent applies a provider webhook event. It reports whether
// the event type is one the service acts on. Events for meetings that were
// not booked here are ignored.
func (s *Service) HandleMeetingEvent(ctx context.Context, event, meetingID string) (bool, error) {
	var status counseling.Status
	switch event {
	case EventMeetingStarted:
		status = counseling.StatusInProgress
	case EventMeetingEnded:
		status = counseling.StatusCompleted
	default:
		slog.DebugContext(ctx, "unhandled meeting event", "event", event)
		return false, nil
	}

	err := s.repo.UpdateCounselingStatusByMeeting(ctx, meetingID, status)
	if errors.Is(err, repository.ErrNotFound) {
		slog.DebugContext(ctx, "meeting event for unknown meeting", "event", event, "meeting_id", meetingID)
		return true, nil
	}
	if err != nil {
		return true, err
	}

	slog.InfoContext(ctx, "counseling session status updated", "meeting_id", meetingID, "status", status)
	return true, nil
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
