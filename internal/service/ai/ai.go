package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

var (
	ErrEmptyResponse   = errors.New("model returned an empty response")
	ErrMalformedOutput = errors.New("model returned malformed summary")
)

// ChatOracle produces the counselor reply for the next user message given the
// prior transcript.
type ChatOracle interface {
	Reply(ctx context.Context, history []chat.Turn, message string) (string, error)
}

// SummaryOracle extracts an emotion summary from a serialized transcript.
type SummaryOracle interface {
	Summarize(ctx context.Context, transcript string) (summary.EmotionSummary, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FormatTranscript renders turns as speaker-labeled lines.
func FormatTranscript(turns []chat.Turn) string {
	var builder strings.Builder
	for i, turn := range turns {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(speakerLabel(turn.Speaker))
		builder.WriteString(": ")
		builder.WriteString(turn.Text)
	}
	return builder.String()
}

func speakerLabel(speaker chat.Speaker) string {
	if speaker == chat.SpeakerAssistant {
		return "Counselor"
	}
	return "User"
}

// ParseSummary decodes the JSON object embedded in a model reply and checks
// it against the EmotionSummary shape.
func ParseSummary(content string) (summary.EmotionSummary, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return summary.EmotionSummary{}, fmt.Errorf("%w: missing json object", ErrMalformedOutput)
	}

	var payload summary.EmotionSummary
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return summary.EmotionSummary{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if err := validate.Struct(payload); err != nil {
		return summary.EmotionSummary{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	return payload.Normalize(), nil
}
