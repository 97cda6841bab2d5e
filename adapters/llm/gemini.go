package llm

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg domain.APIConfig) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Stream(ctx context.Context, req domain.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = g.model
		}

		contents := make([]*genai.Content, 0, len(req.Messages))
		for _, msg := range req.Messages {
			if msg.Role == domain.AssistantRole {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
			} else {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
			}
		}

		var config *genai.GenerateContentConfig
		if req.Preamble != "" {
			config = &genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(req.Preamble, genai.RoleUser),
			}
		}

		log.WithCtx(ctx).Debug("🌐 Streaming from Gemini", zap.String("model", model), zap.Int("contents", len(contents)))
		for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
