// internal/host/registry.go
package host

import (
	"context"
	"sync"
)

// CommandCallback is a host-registered command invoked with named arguments
// and a positional payload. The return shape is whatever the host produces;
// callers pass it through Normalize.
type CommandCallback func(ctx context.Context, args map[string]string, payload string) (any, error)

// CommandRegistry mirrors the host's slash-command table. Adapters register
// whichever commands their host actually exposes; generators probe it.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]CommandCallback
}

// NewCommandRegistry creates an empty command registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]CommandCallback),
	}
}

// Register adds (or replaces) a command callback.
func (r *CommandRegistry) Register(name string, callback CommandCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = callback
}

// Lookup returns the first registered callback among the candidate names.
func (r *CommandRegistry) Lookup(names ...string) (string, CommandCallback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if cb, ok := r.commands[name]; ok {
			return name, cb, true
		}
	}
	return "", nil, false
}
