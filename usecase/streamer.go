package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// ContextWindow is how many trailing transcript messages are sent with each
// generation request.
const ContextWindow = 10

// Emit receives one text chunk. Returning false tells the producer to stop.
type Emit func(chunk string) bool

// StreamResult is the outcome of one generation.
type StreamResult struct {
	// Text is what the turn produced: the accumulated deltas, or the apology
	// when the generation failed.
	Text string
	// Err is set when the generation failed and Text holds the apology.
	Err *domain.ProviderError
	// Stopped is set when the consumer stopped pulling or ctx was cancelled.
	Stopped bool
}

// Streamer forwards generation deltas to a consumer as they arrive.
type Streamer struct {
	gen        domain.Generator
	model      string
	counter    domain.TokenCounter
	tokenLimit int
}

// NewStreamer builds a streamer. counter may be nil.
func NewStreamer(gen domain.Generator, model string, counter domain.TokenCounter) *Streamer {
	return &Streamer{gen: gen, model: model, counter: counter}
}

// WithTokenLimit caps the estimated prompt size. Zero disables the cap, and
// so does a nil counter.
func (s *Streamer) WithTokenLimit(limit int) *Streamer {
	s.tokenLimit = limit
	return s
}

// BuildRequest assembles the generation request: the system preamble, the last
// ContextWindow user/assistant messages of history and, when prompt is not
// empty, prompt as a final user message. Under a token limit the oldest
// messages are dropped until the request fits; the final message is always
// kept.
func (s *Streamer) BuildRequest(history []domain.Message, prompt string) domain.GenerateRequest {
	recent := history
	if len(recent) > ContextWindow {
		recent = recent[len(recent)-ContextWindow:]
	}

	msgs := make([]domain.ChatMessage, 0, len(recent)+1)
	for _, m := range recent {
		if m.Role != domain.UserRole && m.Role != domain.AssistantRole {
			continue
		}
		msgs = append(msgs, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if prompt != "" {
		msgs = append(msgs, domain.ChatMessage{Role: domain.UserRole, Content: prompt})
	}

	return domain.GenerateRequest{
		Preamble: SystemPreamble,
		Messages: s.fitTokenLimit(msgs),
		Model:    s.model,
	}
}

// Stream runs one generation over history (plus an optional prompt) and hands
// every delta to emit in arrival order. A failed generation yields exactly one
// apology chunk.
func (s *Streamer) Stream(ctx context.Context, history []domain.Message, prompt string, emit Emit) StreamResult {
	req := s.BuildRequest(history, prompt)
	logger := log.WithCtx(ctx)
	if s.counter != nil && logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("🧮 Prompt size",
			zap.Int("messages", len(req.Messages)),
			zap.Int("estimated_tokens", s.promptTokens(req)))
	}

	var acc strings.Builder
	for delta, err := range s.gen.Stream(ctx, req) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return StreamResult{Text: acc.String(), Stopped: true}
			}
			kind := ClassifyProviderError(err)
			logger.Error("❌ Generation failed", zap.String("kind", string(kind)), zap.Error(err))
			apology := Apology(kind)
			emit(apology)
			return StreamResult{
				Text: apology,
				Err:  &domain.ProviderError{Kind: kind, Err: err},
			}
		}
		if delta == "" {
			continue
		}
		delta = FilterIdentity(delta)
		acc.WriteString(delta)
		if !emit(delta) {
			logger.Debug("consumer stopped generation")
			return StreamResult{Text: acc.String(), Stopped: true}
		}
	}

	logger.Debug("✅ Generation finished", zap.Int("chars", acc.Len()))
	return StreamResult{Text: acc.String()}
}

func (s *Streamer) fitTokenLimit(msgs []domain.ChatMessage) []domain.ChatMessage {
	if s.counter == nil || s.tokenLimit <= 0 || len(msgs) < 2 {
		return msgs
	}
	last := len(msgs) - 1
	used := s.counter.Count(SystemPreamble) + s.counter.Count(msgs[last].Content)
	start := last
	for start > 0 {
		n := s.counter.Count(msgs[start-1].Content)
		if used+n > s.tokenLimit {
			break
		}
		used += n
		start--
	}
	if start > 0 {
		log.Logger().Debug("✂️ Dropped messages over the token limit",
			zap.Int("dropped", start), zap.Int("limit", s.tokenLimit))
	}
	return msgs[start:]
}

func (s *Streamer) promptTokens(req domain.GenerateRequest) int {
	total := s.counter.Count(req.Preamble)
	for _, m := range req.Messages {
		total += s.counter.Count(m.Content)
	}
	return total
}
