package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// OpenAIClient streams chat completions from any OpenAI-compatible endpoint
// (OpenAI, DeepSeek, Qwen and custom gateways).
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIClient(cfg domain.APIConfig) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Stream(ctx context.Context, req domain.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = c.model
		}

		msgs := make([]openAIMessage, 0, len(req.Messages)+1)
		if req.Preamble != "" {
			msgs = append(msgs, openAIMessage{Role: string(domain.SystemRole), Content: req.Preamble})
		}
		for _, m := range req.Messages {
			msgs = append(msgs, openAIMessage{Role: string(m.Role), Content: m.Content})
		}

		body, err := json.Marshal(openAIRequest{Model: model, Messages: msgs, Stream: true})
		if err != nil {
			yield("", fmt.Errorf("encoding request: %w", err))
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			yield("", fmt.Errorf("building request: %w", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		log.WithCtx(ctx).Debug("🌐 Calling chat completions", zap.String("model", model), zap.Int("messages", len(msgs)))
		resp, err := c.client.Do(httpReq)
		if err != nil {
			yield("", fmt.Errorf("calling chat completions: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield("", statusError(resp))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}

			var chunk openAIChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				log.WithCtx(ctx).Warn("skipping malformed stream chunk", zap.Error(err))
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading stream: %w", err))
		}
	}
}

// statusError keeps the status code in the message so failures can be
// classified by inspection.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body openAIErrorBody
	detail := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		detail = body.Error.Message
	}
	if detail == "" {
		return fmt.Errorf("status %s", resp.Status)
	}
	return fmt.Errorf("status %s: %s", resp.Status, detail)
}
