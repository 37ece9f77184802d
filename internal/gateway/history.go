// internal/gateway/history.go
package gateway

import (
	"context"
	"sync"

	"github.com/user/inkwell/internal/types"
)

// defaultHistoryCap bounds the per-conversation buffer; the context engine
// clips further by token budget.
const defaultHistoryCap = 500

// History is an in-memory ring of recent dialogue per conversation. It
// implements types.HistoryProvider for the diary writer.
type History struct {
	mu       sync.RWMutex
	capacity int
	messages map[types.ConversationKey][]types.HostMessage
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &History{
		capacity: capacity,
		messages: make(map[types.ConversationKey][]types.HostMessage),
	}
}

// Append records a message, evicting the oldest once the buffer is full.
func (h *History) Append(key types.ConversationKey, msg types.HostMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := append(h.messages[key], msg)
	if len(buf) > h.capacity {
		buf = buf[len(buf)-h.capacity:]
	}
	h.messages[key] = buf
}

// Recent returns up to limit most recent messages in chronological order.
// A non-positive limit returns the whole buffer.
func (h *History) Recent(_ context.Context, key types.ConversationKey, limit int) ([]types.HostMessage, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf := h.messages[key]
	if limit > 0 && len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	out := make([]types.HostMessage, len(buf))
	copy(out, buf)
	return out, nil
}

// Clear drops the buffer for one conversation.
func (h *History) Clear(key types.ConversationKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.messages, key)
}
