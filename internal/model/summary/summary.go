package summary

import (
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
)

// UnknownEmotion is reported when no dominant emotion could be extracted.
const UnknownEmotion = "unknown"

// EmotionSummary is the structured result extracted from a transcript.
type EmotionSummary struct {
	EmotionTags     []string `json:"emotion_tags" validate:"dive,required"`
	DominantEmotion string   `json:"dominant_emotion" validate:"required"`
	RepeatedTopics  []string `json:"repeated_topics" validate:"dive,required"`
	RiskFlag        bool     `json:"risk_flag"`
	IntensityScore  float64  `json:"intensity_score" validate:"gte=0,lte=1"`
}

// Fallback is substituted when the summary oracle fails.
func Fallback() EmotionSummary {
	return EmotionSummary{
		EmotionTags:     []string{},
		DominantEmotion: UnknownEmotion,
		RepeatedTopics:  []string{},
		RiskFlag:        false,
		IntensityScore:  0,
	}
}

// Normalize trims labels and collapses tag lists into sorted sets.
func (s EmotionSummary) Normalize() EmotionSummary {
	s.EmotionTags = normalizeSet(s.EmotionTags)
	s.RepeatedTopics = normalizeSet(s.RepeatedTopics)
	s.DominantEmotion = strings.TrimSpace(s.DominantEmotion)
	if s.DominantEmotion == "" {
		s.DominantEmotion = UnknownEmotion
	}
	return s
}

func normalizeSet(values []string) []string {
	trimmed := pie.Filter(pie.Map(values, strings.TrimSpace), func(v string) bool {
		return v != ""
	})
	if len(trimmed) == 0 {
		return []string{}
	}
	return pie.Sort(pie.Unique(trimmed))
}

// Record is a persisted summary row.
type Record struct {
	ID        string    `json:"summary_id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	EmotionSummary
}
