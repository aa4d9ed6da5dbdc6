package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

// Memory keeps records in process memory. Used when no database is
// configured and in tests.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]counseling.User
	summaries map[string]summary.Record
	sessions  map[string]counseling.Session
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]counseling.User),
		summaries: make(map[string]summary.Record),
		sessions:  make(map[string]counseling.Session),
	}
}

func (m *Memory) CreateUser(_ context.Context, user counseling.User) (counseling.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return user, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (counseling.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return counseling.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) SaveSummary(_ context.Context, record summary.Record) (summary.Record, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	m.summaries[record.ID] = record
	m.mu.Unlock()
	return record, nil
}

func (m *Memory) GetSummary(_ context.Context, id string) (summary.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.summaries[id]
	if !ok {
		return summary.Record{}, ErrNotFound
	}
	return record, nil
}

func (m *Memory) ListSummariesByUser(_ context.Context, userID string) ([]summary.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]summary.Record, 0)
	for _, record := range m.summaries {
		if record.UserID == userID {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) CreateCounselingSession(_ context.Context, session counseling.Session) (counseling.Session, error) {
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now().UTC()
	if session.Status == "" {
		session.Status = counseling.StatusScheduled
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

func (m *Memory) GetCounselingSession(_ context.Context, id string) (counseling.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return counseling.Session{}, ErrNotFound
	}
	return session, nil
}

func (m *Memory) ListCounselingSessionsByUser(ctx context.Context, userID string) ([]counseling.Session, error) {
	all, err := m.ListCounselingSessions(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]counseling.Session, 0)
	for _, session := range all {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result, nil
}

func (m *Memory) ListCounselingSessions(_ context.Context) ([]counseling.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]counseling.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) UpdateCounselingStatusByMeeting(_ context.Context, meetingID string, status counseling.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if session.MeetingID == meetingID {
			session.Status = status
			m.sessions[id] = session
			return nil
		}
	}
	return ErrNotFound
}
