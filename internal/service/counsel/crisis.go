package counsel

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mindbridge/counsel/backend/internal/logging"
	"github.com/mindbridge/counsel/backend/internal/metrics"
	"github.com/mindbridge/counsel/backend/internal/model/counseling"
)

const (
	urgentTitlePrefix = "[Urgent] Counseling session - "

	pathCrisis  = "crisis"
	pathSummary = "summary"
)

var errNoScheduler = errors.New("meeting scheduler not configured")

// detectCrisis strips every occurrence of the marker and reports whether
// one was present.
func (m *Manager) detectCrisis(reply string) (string, bool) {
	if !strings.Contains(reply, m.cfg.CrisisMarker) {
		return reply, false
	}
	m.metrics.ObserveCrisisMarker()
	return strings.TrimSpace(strings.ReplaceAll(reply, m.cfg.CrisisMarker, "")), true
}

// escalate books at most one crisis meeting per session. The caller holds
// the session lock, so the flag check and the mark are atomic. Failures
// leave the flag unset and are only logged.
func (m *Manager) escalate(ctx context.Context, sessionID string) string {
	if m.store.IsEscalated(ctx, sessionID) {
		slog.DebugContext(ctx, "crisis meeting already scheduled, skipping", "session_id", sessionID)
		m.metrics.ObserveEscalation(pathCrisis, metrics.EscalationSuppressed)
		return ""
	}

	session, err := m.schedule(ctx, sessionID, "", "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule crisis meeting", "session_id", sessionID, "error", err)
		m.metrics.ObserveEscalation(pathCrisis, metrics.EscalationFailed)
		return ""
	}

	if err := m.store.MarkEscalated(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "failed to mark session escalated", "session_id", sessionID, "error", err)
	}
	m.metrics.ObserveEscalation(pathCrisis, metrics.EscalationCreated)

	slog.WarnContext(ctx, "crisis detected, urgent counseling meeting scheduled",
		"session_id", sessionID,
		"meeting_url", session.MeetingURL,
		logging.AlertKey, true,
	)
	return session.MeetingURL
}

// schedule creates an urgent meeting and records it best-effort.
func (m *Manager) schedule(ctx context.Context, sessionID, userID, summaryID string) (counseling.Session, error) {
	if m.meetings == nil {
		return counseling.Session{}, errNoScheduler
	}

	mt, err := m.meetings.CreateMeeting(ctx, urgentTitlePrefix+shortID(sessionID), true)
	if err != nil {
		m.metrics.ObserveOracleFailure(metrics.OracleMeeting)
		return counseling.Session{}, err
	}

	session := counseling.Session{
		UserID:     userID,
		SummaryID:  summaryID,
		MeetingID:  mt.ID,
		MeetingURL: mt.WebLink,
		Urgent:     true,
		Status:     counseling.StatusScheduled,
	}
	if m.recorder == nil {
		return session, nil
	}

	saved, err := m.recorder.CreateCounselingSession(ctx, session)
	if err != nil {
		slog.WarnContext(ctx, "failed to record counseling session", "meeting_id", mt.ID, "error", err)
		return session, nil
	}
	return saved, nil
}
