package tokenizer

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Counter measures and trims prompt text in model tokens.
// When no BPE ranks can be loaded it falls back to a character heuristic.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New resolves the encoding for model.
func New(model string, logger *slog.Logger) *Counter {
	enc, err := tiktoken.EncodingForModel(strings.TrimSpace(model))
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		if logger != nil {
			logger.Warn("tiktoken encoding unavailable, using estimates", "model", model, "error", err)
		}
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Estimated reports whether counts come from the heuristic.
func (c *Counter) Estimated() bool {
	return c == nil || c.enc == nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.Estimated() {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Truncate trims text to at most max tokens.
func (c *Counter) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if c.Estimated() {
		runes := []rune(text)
		if len(runes) <= max*4 {
			return text
		}
		return string(runes[:max*4])
	}
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	return c.enc.Decode(tokens[:max])
}
