package counsel

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/metrics"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/service/ai"
	chatsvc "github.com/mindbridge/counsel/backend/internal/service/chat"
	"github.com/mindbridge/counsel/backend/internal/service/meeting"
)

var (
	ErrUnknownSession = errors.New("unknown or empty session")
	ErrEmptyMessage   = errors.New("message is empty")
)

// Recorder persists the artefacts that outlive a conversation.
type Recorder interface {
	SaveSummary(ctx context.Context, record summary.Record) (summary.Record, error)
	CreateCounselingSession(ctx context.Context, session counseling.Session) (counseling.Session, error)
}

// Deps lists the collaborators of a Manager. Recorder and Metrics may be nil.
type Deps struct {
	Store    chatsvc.Store
	Locks    *chatsvc.KeyedLocker
	Chat     ai.ChatOracle
	Summary  ai.SummaryOracle
	Meetings meeting.Scheduler
	Recorder Recorder
	Metrics  *metrics.Metrics
	Config   config.CounselConfig
}

// Manager owns the lifecycle of in-memory conversations: the message
// pipeline, crisis escalation and the summary trigger.
type Manager struct {
	store    chatsvc.Store
	locks    *chatsvc.KeyedLocker
	chat     ai.ChatOracle
	summary  ai.SummaryOracle
	meetings meeting.Scheduler
	recorder Recorder
	metrics  *metrics.Metrics
	cfg      config.CounselConfig
}

// NewManager wires a manager. Empty texts in deps.Config fall back to the
// defaults of the config package.
func NewManager(deps Deps) *Manager {
	cfg := deps.Config
	if cfg.CrisisMarker == "" {
		cfg.CrisisMarker = config.DefaultCrisisMarker
	}
	if cfg.Greeting == "" {
		cfg.Greeting = config.DefaultGreeting
	}
	if cfg.Apology == "" {
		cfg.Apology = config.DefaultApology
	}

	locks := deps.Locks
	if locks == nil {
		locks = chatsvc.NewKeyedLocker()
	}

	return &Manager{
		store:    deps.Store,
		locks:    locks,
		chat:     deps.Chat,
		summary:  deps.Summary,
		meetings: deps.Meetings,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		cfg:      cfg,
	}
}

// Greeting is returned when a conversation is opened explicitly.
type Greeting struct {
	Greeting  string `json:"greeting"`
	SessionID string `json:"session_id"`
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Reply      string `json:"reply"`
	SessionID  string `json:"session_id"`
	MeetingURL string `json:"meeting_url,omitempty"`
}

// StartSession opens a conversation seeded with the greeting as the first
// assistant turn.
func (m *Manager) StartSession(ctx context.Context) (Greeting, error) {
	sessionID := m.store.Create(ctx)
	if err := m.store.Append(ctx, sessionID, chat.AssistantTurn(m.cfg.Greeting)); err != nil {
		return Greeting{}, err
	}
	return Greeting{Greeting: m.cfg.Greeting, SessionID: sessionID}, nil
}

// SendMessage runs one chat turn. An empty or unknown session id starts a
// new conversation. Oracle failures never surface: the apology text is
// answered and recorded instead.
func (m *Manager) SendMessage(ctx context.Context, text, sessionID string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	sessionID, release, err := m.acquire(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	defer release()

	m.metrics.ObserveMessage()

	history := m.store.Get(ctx, sessionID)
	if err := m.store.Append(ctx, sessionID, chat.UserTurn(text)); err != nil {
		return Reply{}, err
	}

	var meetingURL string
	reply, err := m.chat.Reply(ctx, history, text)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "chat oracle failed, answering with apology", "session_id", sessionID, "error", err)
		m.metrics.ObserveOracleFailure(metrics.OracleChat)
		reply = m.cfg.Apology
	case strings.TrimSpace(reply) == "":
		slog.WarnContext(ctx, "chat oracle returned empty reply", "session_id", sessionID)
		m.metrics.ObserveOracleFailure(metrics.OracleChat)
		reply = m.cfg.Apology
	default:
		var crisis bool
		reply, crisis = m.detectCrisis(reply)
		if crisis {
			meetingURL = m.escalate(ctx, sessionID)
		}
		if reply == "" {
			reply = m.cfg.Apology
		}
	}

	if err := m.store.Append(ctx, sessionID, chat.AssistantTurn(reply)); err != nil {
		return Reply{}, err
	}

	return Reply{Reply: reply, SessionID: sessionID, MeetingURL: meetingURL}, nil
}

// ClearSession drops a conversation without summarizing it. Clearing an
// unknown session is a no-op.
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	release, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	m.store.Purge(ctx, sessionID)
	return nil
}

// Transcript returns a copy of the conversation in append order.
func (m *Manager) Transcript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	if sessionID == "" || !m.store.Exists(ctx, sessionID) {
		return nil, ErrUnknownSession
	}
	return m.store.Get(ctx, sessionID), nil
}

// LiveSessions reports how many conversations are held in memory.
func (m *Manager) LiveSessions() int {
	return m.store.Len()
}

// acquire resolves the session to work on and locks it. A session purged
// while waiting for the lock is replaced by a fresh one.
func (m *Manager) acquire(ctx context.Context, sessionID string) (string, func(), error) {
	for {
		if sessionID == "" || !m.store.Exists(ctx, sessionID) {
			sessionID = m.store.Create(ctx)
		}

		release, err := m.locks.Lock(ctx, sessionID)
		if err != nil {
			return "", nil, err
		}
		if m.store.Exists(ctx, sessionID) {
			return sessionID, release, nil
		}
		release()
		sessionID = ""
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
