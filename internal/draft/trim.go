package draft

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

const (
	encodingName = "cl100k_base"

	// charsPerToken is the estimate used when no encoding is available.
	charsPerToken = 3
)

// Trimmer bounds thread text to a token budget, keeping the most recent tail.
type Trimmer struct {
	maxTokens int
	encoding  *tiktoken.Tiktoken
}

// NewTrimmer loads the cl100k_base encoding. When the encoding cannot be
// loaded the trimmer falls back to a character estimate.
func NewTrimmer(maxTokens int, logger *slog.Logger) *Trimmer {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		if logger != nil {
			logger.Warn("tiktoken encoding unavailable, estimating tokens", "encoding", encodingName, "error", err)
		}
		enc = nil
	}
	return &Trimmer{maxTokens: maxTokens, encoding: enc}
}

// CountTokens returns the token count of text.
func (t *Trimmer) CountTokens(text string) int {
	if t.encoding == nil {
		return EstimateTokens(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// EstimateTokens approximates a token count at three characters per token.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + charsPerToken - 1) / charsPerToken
}

// Trim returns text unchanged when it fits the budget, otherwise its tail.
// A non-positive budget disables trimming.
func (t *Trimmer) Trim(text string) string {
	if t == nil || t.maxTokens <= 0 || text == "" {
		return text
	}

	if t.encoding == nil {
		runes := []rune(text)
		limit := t.maxTokens * charsPerToken
		if len(runes) <= limit {
			return text
		}
		return string(runes[len(runes)-limit:])
	}

	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text
	}
	return t.encoding.Decode(tokens[len(tokens)-t.maxTokens:])
}
