package domain

import (
	"context"
	"iter"
)

// Generator abstracts any streaming chat/LLM provider.
type Generator interface {
	// Stream yields text deltas in arrival order. A non-nil error ends the
	// sequence; the consumer may stop early by breaking out of the loop.
	Stream(ctx context.Context, req GenerateRequest) iter.Seq2[string, error]
}

type GenerateRequest struct {
	Preamble string
	Messages []ChatMessage
	Model    string
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// TokenCounter estimates how many tokens a provider will bill for text.
type TokenCounter interface {
	Count(text string) int
}
