package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
)

func newOpenAITestServer(t *testing.T, content string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  "test-model",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
}

func newTestOpenAIService(baseURL string) *OpenAIService {
	temp := 0.7
	maxTokens := 500
	return NewOpenAIService(config.AIConfig{
		Provider:    config.ProviderOpenAI,
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     baseURL,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Timeout:     5 * time.Second,
	}, "[CRISIS]")
}

func TestOpenAIReplySendsFullHistory(t *testing.T) {
	var captured openai.ChatCompletionRequest
	srv := newOpenAITestServer(t, "I hear you.", &captured)
	defer srv.Close()

	svc := newTestOpenAIService(srv.URL)
	history := []chat.Turn{chat.UserTurn("hello"), chat.AssistantTurn("hi there")}

	reply, err := svc.Reply(t.Context(), history, "I feel low")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if reply != "I hear you." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(captured.Messages) != 4 {
		t.Fatalf("expected system + 2 history + user message, got %d", len(captured.Messages))
	}
	roles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	for i, role := range roles {
		if captured.Messages[i].Role != role {
			t.Fatalf("message %d: role %s, want %s", i, captured.Messages[i].Role, role)
		}
	}
	if captured.Messages[3].Content != "I feel low" {
		t.Fatalf("last message should be the new user message, got %q", captured.Messages[3].Content)
	}
	if captured.MaxTokens != 500 {
		t.Fatalf("expected max tokens 500, got %d", captured.MaxTokens)
	}
}

func TestOpenAIReplyEmptyContent(t *testing.T) {
	srv := newOpenAITestServer(t, "   ", nil)
	defer srv.Close()

	if _, err := newTestOpenAIService(srv.URL).Reply(t.Context(), nil, "hi"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestOpenAIReplyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestOpenAIService(srv.URL).Reply(t.Context(), nil, "hi"); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestOpenAISummarizeRequestsJSON(t *testing.T) {
	var captured openai.ChatCompletionRequest
	content := `{"emotion_tags":["sadness"],"dominant_emotion":"sadness","repeated_topics":["family"],"risk_flag":false,"intensity_score":0.4}`
	srv := newOpenAITestServer(t, content, &captured)
	defer srv.Close()

	got, err := newTestOpenAIService(srv.URL).Summarize(t.Context(), "User: I miss my dad")
	if err != nil {
		t.Fatalf("Summarize err: %v", err)
	}
	if got.DominantEmotion != "sadness" || got.IntensityScore != 0.4 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("summary must request a json object response, got %+v", captured.ResponseFormat)
	}
}

func TestOpenAISummarizeMalformed(t *testing.T) {
	srv := newOpenAITestServer(t, "not json at all", nil)
	defer srv.Close()

	if _, err := newTestOpenAIService(srv.URL).Summarize(t.Context(), "User: hi"); err == nil {
		t.Fatal("expected error for malformed summary")
	}
}
