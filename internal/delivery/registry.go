// internal/delivery/registry.go
package delivery

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/user/inkwell/internal/types"
)

// Handler announces a freshly written diary entry back to the channel the
// conversation lives on.
type Handler func(ctx context.Context, key types.ConversationKey, entry *types.DiaryEntry) error

// Registry routes entry notifications to the appropriate handler based on
// the conversation id's scheme prefix (e.g. "telegram:", "webhook:").
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for conversation ids starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// EntryCreated notifies the handler matching the conversation's scheme.
// Notification is best-effort: a missing handler or a handler error is
// logged, never propagated, so it can never fail a diary write.
func (r *Registry) EntryCreated(ctx context.Context, key types.ConversationKey, entry *types.DiaryEntry) {
	conversation := key.Conversation()

	r.mu.RLock()
	var handler Handler
	for prefix, h := range r.handlers {
		if strings.HasPrefix(conversation, prefix) {
			handler = h
			break
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		slog.Debug("no delivery handler for conversation", "conversation", key)
		return
	}
	if err := handler(ctx, key, entry); err != nil {
		slog.Warn("entry notification failed",
			"conversation", key, "date", entry.Date, "error", err)
	}
}
