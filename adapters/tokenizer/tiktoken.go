package tokenizer

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const DefaultEncoding = "cl100k_base"

// Tiktoken estimates prompt sizes with a BPE encoding. When the encoding
// cannot be loaded it falls back to a rune heuristic.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// New loads the named encoding. Loading may download the BPE ranks, so call
// it once at startup and share the result.
func New(encoding string) *Tiktoken {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		log.Logger().Warn("⚠️ No tiktoken encoding available, estimating tokens from runes",
			zap.String("encoding", encoding), zap.Error(err))
		return &Tiktoken{}
	}
	return &Tiktoken{encoding: enc}
}

func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	if t.encoding == nil {
		return EstimateRunes(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// EstimateRunes approximates one token per four runes.
func EstimateRunes(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
