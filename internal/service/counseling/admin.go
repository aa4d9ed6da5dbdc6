package counseling

import (
	"context"
	"errors"
	"time"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/repository"
)

// AdminUser is the part of a user shown to counselors.
type AdminUser struct {
	Nickname string `json:"nickname"`
	Region   string `json:"region,omitempty"`
}

// AdminSummary is the part of a summary shown to counselors.
type AdminSummary struct {
	DominantEmotion string   `json:"dominant_emotion"`
	EmotionTags     []string `json:"emotion_tags"`
	RiskFlag        bool     `json:"risk_flag"`
	IntensityScore  float64  `json:"intensity_score"`
}

// AdminSession is one row of the counselor dashboard.
type AdminSession struct {
	SessionID  string            `json:"session_id"`
	User       *AdminUser        `json:"user"`
	Summary    *AdminSummary     `json:"summary"`
	Urgent     bool              `json:"urgent"`
	Status     counseling.Status `json:"status"`
	MeetingURL string            `json:"meeting_url"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AdminSessions lists every booked session, newest first, joined with its
// user and summary when they are known.
func (s *Service) AdminSessions(ctx context.Context) ([]AdminSession, error) {
	sessions, err := s.repo.ListCounselingSessions(ctx)
	if err != nil {
		return nil, err
	}

	users := make(map[string]*AdminUser)
	result := make([]AdminSession, 0, len(sessions))
	for _, session := range sessions {
		row := AdminSession{
			SessionID:  session.ID,
			Urgent:     session.Urgent,
			Status:     session.Status,
			MeetingURL: session.MeetingURL,
			CreatedAt:  session.CreatedAt,
		}

		if session.UserID != "" {
			user, ok := users[session.UserID]
			if !ok {
				user, err = s.adminUser(ctx, session.UserID)
				if err != nil {
					return nil, err
				}
				users[session.UserID] = user
			}
			row.User = user
		}

		if session.SummaryID != "" {
			record, err := s.repo.GetSummary(ctx, session.SummaryID)
			switch {
			case err == nil:
				row.Summary = &AdminSummary{
					DominantEmotion: record.DominantEmotion,
					EmotionTags:     record.EmotionTags,
					RiskFlag:        record.RiskFlag,
					IntensityScore:  record.IntensityScore,
				}
			case !errors.Is(err, repository.ErrNotFound):
				return nil, err
			}
		}

		result = append(result, row)
	}
	return result, nil
}

func (s *Service) adminUser(ctx context.Context, id string) (*AdminUser, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &AdminUser{Nickname: user.Nickname, Region: user.Region}, nil
}
