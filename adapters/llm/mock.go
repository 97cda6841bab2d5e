package llm

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

// MockClient answers offline by echoing the last user message word by word.
type MockClient struct {
	Delay time.Duration
}

func (m *MockClient) Stream(ctx context.Context, req domain.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		last := ""
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == domain.UserRole {
				last = req.Messages[i].Content
				break
			}
		}

		words := strings.Fields("You said: " + last)
		for i, w := range words {
			if i < len(words)-1 {
				w += " "
			}
			if m.Delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(m.Delay):
				}
			} else if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}
