package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

// OpenAIService implements both oracles with the OpenAI chat completion API
// or any compatible endpoint.
type OpenAIService struct {
	client *openai.Client

	chatModel          string
	summaryModel       string
	temperature        float32
	summaryTemperature float32
	maxTokens          int
	systemPrompt       string
}

var (
	_ ChatOracle    = (*OpenAIService)(nil)
	_ SummaryOracle = (*OpenAIService)(nil)
)

// NewOpenAIService builds a client from the AI configuration.
func NewOpenAIService(cfg config.AIConfig, crisisMarker string) *OpenAIService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
	}

	svc := &OpenAIService{
		client:       openai.NewClientWithConfig(clientConfig),
		chatModel:    cfg.Model,
		summaryModel: cfg.SummaryModel,
		systemPrompt: BuildSystemPrompt(crisisMarker),
	}
	if svc.summaryModel == "" {
		svc.summaryModel = svc.chatModel
	}
	if cfg.Temperature != nil {
		svc.temperature = float32(*cfg.Temperature)
	}
	if cfg.SummaryTemperature != nil {
		svc.summaryTemperature = float32(*cfg.SummaryTemperature)
	}
	if cfg.MaxTokens != nil {
		svc.maxTokens = *cfg.MaxTokens
	}

	return svc
}

// Reply sends the system prompt, the full history and the new message.
func (s *OpenAIService) Reply(ctx context.Context, history []chat.Turn, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Speaker == chat.SpeakerAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.chatModel,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", oops.In("openai").With("model", s.chatModel).Wrapf(err, "failed to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("Generated chat reply", "model", s.chatModel, "history", len(history), "length", len(content))
	return content, nil
}

// Summarize requests a JSON object response and validates its shape.
func (s *OpenAIService) Summarize(ctx context.Context, transcript string) (summary.EmotionSummary, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SummarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: SummaryUserPrompt + transcript},
		},
		Temperature: s.summaryTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return summary.EmotionSummary{}, oops.In("openai").With("model", s.summaryModel).Wrapf(err, "failed to create summary completion")
	}
	if len(resp.Choices) == 0 {
		return summary.EmotionSummary{}, ErrEmptyResponse
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	result = strings.Trim(result, "`")
	result = strings.TrimPrefix(strings.TrimSpace(result), "json")

	parsed, err := ParseSummary(result)
	if err != nil {
		return summary.EmotionSummary{}, fmt.Errorf("failed to parse summary: %w", err)
	}
	return parsed, nil
}
