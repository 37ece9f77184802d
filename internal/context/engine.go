// internal/context/engine.go
package context

import (
	"fmt"
	"unicode"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/inkwell/internal/types"
)

// Engine estimates token costs and clips dialogue history to a budget.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
}

// New creates an engine using the tokenizer for the given model.
func New(model string) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{tokenizer: enc}, nil
}

// NewWithEstimator creates an engine that uses a character-class heuristic
// instead of a real tokenizer. Useful where the tokenizer data is
// unavailable; Hangul runs at roughly 1.5 characters per token, everything
// else at 4.
func NewWithEstimator() *Engine {
	return &Engine{}
}

// CountTokens returns the estimated token count for a string.
func (e *Engine) CountTokens(text string) int {
	if e.tokenizer != nil {
		return len(e.tokenizer.Encode(text, nil, nil))
	}
	var hangul, other int
	for _, r := range text {
		if unicode.In(r, unicode.Hangul) {
			hangul++
		} else {
			other++
		}
	}
	est := (hangul*2+2)/3 + (other+3)/4
	return est
}

// messageCost is the token cost of one message as it will appear in the
// prompt's dialogue summary.
func (e *Engine) messageCost(msg types.HostMessage) int {
	return e.CountTokens(msg.Name + ": " + msg.Text)
}

// Clip selects the most recent messages whose cumulative cost fits the
// budget. Messages are considered newest-first so the oldest are dropped
// first; the result is returned in chronological order and never exceeds
// the budget.
func (e *Engine) Clip(messages []types.HostMessage, budget int) []types.HostMessage {
	var kept []types.HostMessage
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Text == "" {
			continue
		}
		cost := e.messageCost(msg)
		if used+cost > budget {
			break
		}
		used += cost
		kept = append(kept, msg)
	}
	// kept is newest-first; restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
