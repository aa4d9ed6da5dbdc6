package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
)

var ErrUnavailable = errors.New("language model not configured")

// Oracle answers chat turns and summarizes transcripts.
type Oracle interface {
	ChatOracle
	SummaryOracle
}

var (
	_ Oracle = (*EinoService)(nil)
	_ Oracle = (*OpenAIService)(nil)
	_ Oracle = Unavailable{}
)

// Unavailable fails every call. The conversation manager turns those
// failures into its fallbacks.
type Unavailable struct{}

func (Unavailable) Reply(context.Context, []chat.Turn, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Summarize(context.Context, string) (summary.EmotionSummary, error) {
	return summary.EmotionSummary{}, ErrUnavailable
}

// New builds the oracle for the configured provider.
func New(ctx context.Context, cfg config.AIConfig, crisisMarker string) (Oracle, error) {
	if !cfg.Enabled() {
		return Unavailable{}, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg, crisisMarker), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx, cfg.Temperature)
		if err != nil {
			return nil, fmt.Errorf("create chat model: %w", err)
		}

		summaryCfg := cfg
		summaryCfg.Model = cfg.SummaryModel
		summaryModel, err := summaryCfg.NewChatModel(ctx, cfg.SummaryTemperature)
		if err != nil {
			return nil, fmt.Errorf("create summary model: %w", err)
		}
		return NewEinoService(ctx, chatModel, summaryModel, crisisMarker)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
