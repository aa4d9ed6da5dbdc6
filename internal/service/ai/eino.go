package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

// EinoService runs both oracles as eino chains over any ChatModel (Ark in
// production).
type EinoService struct {
	systemPrompt string
	chatChain    compose.Runnable[map[string]any, *schema.Message]
	summaryChain compose.Runnable[map[string]any, *schema.Message]
}

var (
	_ ChatOracle    = (*EinoService)(nil)
	_ SummaryOracle = (*EinoService)(nil)
)

// NewEinoService compiles the chat and summary chains. summaryModel may be the
// same instance as chatModel.
func NewEinoService(ctx context.Context, chatModel, summaryModel model.BaseChatModel, crisisMarker string) (*EinoService, error) {
	chatTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chatChain := compose.NewChain[map[string]any, *schema.Message]()
	chatChain.AppendChatTemplate(chatTemplate)
	chatChain.AppendChatModel(chatModel)

	chatRunnable, err := chatChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	summaryTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{transcript}"),
	)

	summaryChain := compose.NewChain[map[string]any, *schema.Message]()
	summaryChain.AppendChatTemplate(summaryTemplate)
	summaryChain.AppendChatModel(summaryModel)

	summaryRunnable, err := summaryChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &EinoService{
		systemPrompt: BuildSystemPrompt(crisisMarker),
		chatChain:    chatRunnable,
		summaryChain: summaryRunnable,
	}, nil
}

// Reply generates the next counselor message.
func (s *EinoService) Reply(ctx context.Context, history []chat.Turn, message string) (string, error) {
	input := map[string]any{
		"system":  s.systemPrompt,
		"history": buildHistoryMessages(history),
		"query":   message,
	}

	response, err := s.chatChain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("Generated chat reply", "history", len(history), "length", len(response.Content))
	return response.Content, nil
}

// Summarize asks the model for the EmotionSummary JSON object.
func (s *EinoService) Summarize(ctx context.Context, transcript string) (summary.EmotionSummary, error) {
	input := map[string]any{
		"system":     SummarySystemPrompt,
		"transcript": SummaryUserPrompt + transcript,
	}

	response, err := s.summaryChain.Invoke(ctx, input)
	if err != nil {
		return summary.EmotionSummary{}, fmt.Errorf("failed to run summary chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return summary.EmotionSummary{}, ErrEmptyResponse
	}

	return ParseSummary(response.Content)
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Speaker {
		case chat.SpeakerUser:
			history = append(history, schema.UserMessage(turn.Text))
		case chat.SpeakerAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return history
}
