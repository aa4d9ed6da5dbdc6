package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

const shardCount = 32

// Store is the session state contract used by the conversation manager.
type Store interface {
	Create(ctx context.Context) string
	Exists(ctx context.Context, sessionID string) bool
	Append(ctx context.Context, sessionID string, turn chat.Turn) error
	Get(ctx context.Context, sessionID string) []chat.Turn
	Purge(ctx context.Context, sessionID string)
	IsEscalated(ctx context.Context, sessionID string) bool
	MarkEscalated(ctx context.Context, sessionID string) error
	Len() int
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// Service keeps conversations in process memory, spread over shards keyed by
// a hash of the session id.
type Service struct {
	shards [shardCount]*shard
}

var _ Store = (*Service)(nil)

// NewService bootstraps an empty in-memory session store.
func NewService() *Service {
	s := &Service{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*chat.Session)}
	}
	return s
}

func (s *Service) shardFor(sessionID string) *shard {
	return s.shards[xxhash.Sum64String(sessionID)%shardCount]
}

// Create provisions a new empty session and returns its identifier.
func (s *Service) Create(_ context.Context) string {
	session := &chat.Session{
		ID:        uuid.NewString(),
		Turns:     make([]chat.Turn, 0, 16),
		CreatedAt: time.Now().UTC(),
	}

	sh := s.shardFor(session.ID)
	sh.mu.Lock()
	sh.sessions[session.ID] = session
	sh.mu.Unlock()

	return session.ID
}

// Exists reports whether the session is live.
func (s *Service) Exists(_ context.Context, sessionID string) bool {
	sh := s.shardFor(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.sessions[sessionID]
	return ok
}

// Append adds a turn to the end of the session transcript.
func (s *Service) Append(_ context.Context, sessionID string, turn chat.Turn) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	session, ok := sh.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.Turns = append(session.Turns, turn)
	return nil
}

// Get returns a copy of the transcript in append order, or nil for unknown
// sessions.
func (s *Service) Get(_ context.Context, sessionID string) []chat.Turn {
	sh := s.shardFor(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	session, ok := sh.sessions[sessionID]
	if !ok {
		return nil
	}
	copied := make([]chat.Turn, len(session.Turns))
	copy(copied, session.Turns)
	return copied
}

// Purge drops every piece of state held for the session. Purging an absent
// session is a no-op.
func (s *Service) Purge(_ context.Context, sessionID string) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	delete(sh.sessions, sessionID)
	sh.mu.Unlock()
}

// IsEscalated reports whether a crisis meeting was already booked.
func (s *Service) IsEscalated(_ context.Context, sessionID string) bool {
	sh := s.shardFor(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	session, ok := sh.sessions[sessionID]
	return ok && session.Escalated
}

// MarkEscalated flips the escalation flag. The flag never resets.
func (s *Service) MarkEscalated(_ context.Context, sessionID string) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	session, ok := sh.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.Escalated = true
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}
