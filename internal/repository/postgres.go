package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables if they do not already exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Postgres stores records in a Postgres database through lib/pq.
// The caller owns the *sql.DB lifecycle.
type Postgres struct {
	DB *sql.DB
}

var _ Repository = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

// Shutdown closes the pool. It lets a DI container release the database.
func (r *Postgres) Shutdown() error { return r.DB.Close() }

func (r *Postgres) CreateUser(ctx context.Context, user counseling.User) (counseling.User, error) {
	user.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, nickname, region)
         VALUES ($1, $2, $3)
         RETURNING created_at`,
		user.ID, user.Nickname, user.Region,
	).Scan(&user.CreatedAt)
	if err != nil {
		return counseling.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *Postgres) GetUser(ctx context.Context, id string) (counseling.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return counseling.User{}, ErrNotFound
	}

	var user counseling.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, nickname, region, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Nickname, &user.Region, &user.CreatedAt)
	if err != nil {
		return counseling.User{}, notFound(err, "select user")
	}
	return user, nil
}

func (r *Postgres) SaveSummary(ctx context.Context, record summary.Record) (summary.Record, error) {
	record.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO ai_summaries (id, user_id, emotion_tags, dominant_emotion, repeated_topics, risk_flag, intensity_score)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		record.ID, nullUUID(record.UserID), pq.Array(record.EmotionTags), record.DominantEmotion,
		pq.Array(record.RepeatedTopics), record.RiskFlag, record.IntensityScore,
	).Scan(&record.CreatedAt)
	if err != nil {
		return summary.Record{}, fmt.Errorf("insert summary: %w", err)
	}
	return record, nil
}

const summaryColumns = `id, COALESCE(user_id::text, ''), emotion_tags, dominant_emotion, repeated_topics, risk_flag, intensity_score, created_at`

func (r *Postgres) GetSummary(ctx context.Context, id string) (summary.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return summary.Record{}, ErrNotFound
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM ai_summaries WHERE id = $1`, id)
	record, err := scanSummary(row)
	if err != nil {
		return summary.Record{}, notFound(err, "select summary")
	}
	return record, nil
}

func (r *Postgres) ListSummariesByUser(ctx context.Context, userID string) ([]summary.Record, error) {
	result := make([]summary.Record, 0)
	if _, err := uuid.Parse(userID); err != nil {
		return result, nil
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM ai_summaries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *Postgres) CreateCounselingSession(ctx context.Context, session counseling.Session) (counseling.Session, error) {
	session.ID = uuid.NewString()
	if session.Status == "" {
		session.Status = counseling.StatusScheduled
	}

	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO counseling_sessions (id, user_id, summary_id, webex_meeting_id, meeting_url, urgent, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		session.ID, nullUUID(session.UserID), nullUUID(session.SummaryID), session.MeetingID,
		session.MeetingURL, session.Urgent, string(session.Status),
	).Scan(&session.CreatedAt)
	if err != nil {
		return counseling.Session{}, fmt.Errorf("insert counseling session: %w", err)
	}
	return session, nil
}

const sessionColumns = `id, COALESCE(user_id::text, ''), COALESCE(summary_id::text, ''), webex_meeting_id, meeting_url, urgent, status, created_at`

func (r *Postgres) GetCounselingSession(ctx context.Context, id string) (counseling.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return counseling.Session{}, ErrNotFound
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM counseling_sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err != nil {
		return counseling.Session{}, notFound(err, "select counseling session")
	}
	return session, nil
}

func (r *Postgres) ListCounselingSessionsByUser(ctx context.Context, userID string) ([]counseling.Session, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return make([]counseling.Session, 0), nil
	}
	return r.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM counseling_sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Postgres) ListCounselingSessions(ctx context.Context) ([]counseling.Session, error) {
	return r.listSessions(ctx, `SELECT `+sessionColumns+` FROM counseling_sessions ORDER BY created_at DESC`)
}

func (r *Postgres) UpdateCounselingStatusByMeeting(ctx context.Context, meetingID string, status counseling.Status) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE counseling_sessions SET status = $1 WHERE webex_meeting_id = $2`,
		string(status), meetingID,
	)
	if err != nil {
		return fmt.Errorf("update counseling status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) listSessions(ctx context.Context, query string, args ...any) ([]counseling.Session, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list counseling sessions: %w", err)
	}
	defer rows.Close()

	result := make([]counseling.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counseling session: %w", err)
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (summary.Record, error) {
	var record summary.Record
	var tags, topics pq.StringArray
	err := row.Scan(&record.ID, &record.UserID, &tags, &record.DominantEmotion, &topics,
		&record.RiskFlag, &record.IntensityScore, &record.CreatedAt)
	if err != nil {
		return summary.Record{}, err
	}
	record.EmotionTags = append([]string{}, tags...)
	record.RepeatedTopics = append([]string{}, topics...)
	return record, nil
}

func scanSession(row scanner) (counseling.Session, error) {
	var session counseling.Session
	var status string
	err := row.Scan(&session.ID, &session.UserID, &session.SummaryID, &session.MeetingID,
		&session.MeetingURL, &session.Urgent, &status, &session.CreatedAt)
	if err != nil {
		return counseling.Session{}, err
	}
	session.Status = counseling.Status(status)
	return session, nil
}

func nullUUID(id string) sql.NullString {
	if _, err := uuid.Parse(id); err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id, Valid: true}
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
