package counsel

import (
	"context"
	"log/slog"

	"github.com/mindbridge/counsel/backend/internal/logging"
	"github.com/mindbridge/counsel/backend/internal/metrics"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/service/ai"
)

// SummaryResult is the outcome of RequestSummary.
type SummaryResult struct {
	summary.Record
	MeetingURL string `json:"meeting_url,omitempty"`
}

// RequestSummary asks the summary oracle for an emotion summary of the
// conversation and then forgets the conversation, whatever the outcome.
// A risk flag books an urgent meeting regardless of earlier crisis
// escalation.
func (m *Manager) RequestSummary(ctx context.Context, sessionID, userID string) (SummaryResult, error) {
	if sessionID == "" {
		return SummaryResult{}, ErrUnknownSession
	}

	release, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return SummaryResult{}, err
	}
	defer release()

	turns := m.store.Get(ctx, sessionID)
	if len(turns) == 0 {
		return SummaryResult{}, ErrUnknownSession
	}

	result, err := m.summary.Summarize(ctx, ai.FormatTranscript(turns))
	if err != nil {
		slog.WarnContext(ctx, "summary oracle failed, using fallback", "session_id", sessionID, "error", err)
		m.metrics.ObserveOracleFailure(metrics.OracleSummary)
		result = summary.Fallback()
	}
	m.store.Purge(ctx, sessionID)
	m.metrics.ObserveSummary(result.RiskFlag)

	record := summary.Record{UserID: userID, EmotionSummary: result}
	if m.recorder != nil {
		saved, err := m.recorder.SaveSummary(ctx, record)
		if err != nil {
			slog.WarnContext(ctx, "failed to persist summary", "session_id", sessionID, "error", err)
		} else {
			record = saved
		}
	}

	out := SummaryResult{Record: record}
	if !result.RiskFlag {
		return out, nil
	}

	session, err := m.schedule(ctx, sessionID, userID, record.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule risk meeting", "session_id", sessionID, "error", err)
		m.metrics.ObserveEscalation(pathSummary, metrics.EscalationFailed)
		return out, nil
	}
	m.metrics.ObserveEscalation(pathSummary, metrics.EscalationCreated)

	slog.WarnContext(ctx, "risk flagged in summary, urgent counseling meeting scheduled",
		"session_id", sessionID,
		"user_id", userID,
		"meeting_url", session.MeetingURL,
		logging.AlertKey, true,
	)
	out.MeetingURL = session.MeetingURL
	return out, nil
}
