package llm

import (
	"context"
	"fmt"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderQwen     = "qwen"
	ProviderGemini   = "gemini"
	ProviderCustom   = "custom"
	ProviderMock     = "mock"
)

// NewGenerator builds the streaming client for cfg.Provider.
func NewGenerator(ctx context.Context, cfg domain.APIConfig) (domain.Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderDeepSeek, ProviderQwen, ProviderCustom:
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		g, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderMock:
		return &MockClient{}, nil
	default:
		return nil, &domain.ValidationError{
			Field:  "provider",
			Reason: fmt.Sprintf("unknown provider %q", cfg.Provider),
		}
	}
}
