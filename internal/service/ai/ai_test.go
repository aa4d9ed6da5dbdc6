package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/mindbridge/counsel/backend/internal/model/chat"
)

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]chat.Turn{
		chat.UserTurn("I can't sleep"),
		chat.AssistantTurn("That sounds exhausting."),
	})
	want := "User: I can't sleep\nCounselor: That sounds exhausting."
	if got != want {
		t.Fatalf("FormatTranscript = %q, want %q", got, want)
	}
}

func TestParseSummaryAcceptsWrappedJSON(t *testing.T) {
	content := "Here you go:\n```json\n{\"emotion_tags\":[\"anxiety\",\"anxiety\",\"loneliness\"],\"dominant_emotion\":\"anxiety\"," +
		"\"repeated_topics\":[\"school\"],\"risk_flag\":true,\"intensity_score\":0.8}\n```"

	got, err := ParseSummary(content)
	if err != nil {
		t.Fatalf("ParseSummary err: %v", err)
	}
	if len(got.EmotionTags) != 2 {
		t.Fatalf("expected deduplicated tags, got %v", got.EmotionTags)
	}
	if !got.RiskFlag || got.IntensityScore != 0.8 || got.DominantEmotion != "anxiety" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestParseSummaryRejectsMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"no json":             "I am not sure how you feel",
		"broken json":         `{"emotion_tags": [}`,
		"intensity too large": `{"emotion_tags":[],"dominant_emotion":"sad","repeated_topics":[],"risk_flag":false,"intensity_score":3}`,
		"missing dominant":    `{"emotion_tags":["sad"],"repeated_topics":[],"risk_flag":false,"intensity_score":0.2}`,
		"wrong type":          `{"emotion_tags":"sad","dominant_emotion":"sad","risk_flag":false,"intensity_score":0.2}`,
	}

	for name, content := range cases {
		if _, err := ParseSummary(content); !errors.Is(err, ErrMalformedOutput) {
			t.Fatalf("%s: expected ErrMalformedOutput, got %v", name, err)
		}
	}
}

func TestBuildSystemPromptMentionsMarker(t *testing.T) {
	prompt := BuildSystemPrompt("<<HELP>>")
	if !strings.Contains(prompt, "<<HELP>>") {
		t.Fatal("system prompt must carry the crisis marker")
	}
}

