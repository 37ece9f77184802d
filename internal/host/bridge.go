// internal/host/bridge.go
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Bridge is the runtime link to the host's capabilities. The daemon starts
// with an empty bridge; the host announces what it exposes (command callback
// URLs, a slash-command runner) after both sides are up, and the generation
// and image chains pick the capabilities up through here.
type Bridge struct {
	registry *CommandRegistry

	mu    sync.RWMutex
	slash SlashExecutor

	client *http.Client
}

// NewBridge creates a bridge with no capabilities registered yet.
func NewBridge() *Bridge {
	return &Bridge{
		registry: NewCommandRegistry(),
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Registry exposes the command table backing the bridge.
func (b *Bridge) Registry() *CommandRegistry {
	return b.registry
}

// RegisterCommands wires each named host command to an HTTP callback at the
// given URL. The callback posts the command name, arguments and payload and
// returns the decoded response body.
func (b *Bridge) RegisterCommands(commandURL string, names []string) {
	for _, name := range names {
		b.registry.Register(name, b.commandCallback(commandURL, name))
	}
}

// SetSlashURL installs an HTTP-backed slash-command runner.
func (b *Bridge) SetSlashURL(slashURL string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slash = func(ctx context.Context, command string) (any, error) {
		return b.post(ctx, slashURL, map[string]any{"command": command})
	}
}

// Execute runs a slash-command string through the registered runner. It
// satisfies SlashExecutor so chains can hold it before the host registers.
func (b *Bridge) Execute(ctx context.Context, command string) (any, error) {
	b.mu.RLock()
	slash := b.slash
	b.mu.RUnlock()
	if slash == nil {
		return nil, fmt.Errorf("no slash runner registered")
	}
	return slash(ctx, command)
}

// HasSlash reports whether a slash runner has been registered.
func (b *Bridge) HasSlash() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.slash != nil
}

// Injector returns a prompt injector that installs standing instructions
// through the host's /inject slash command.
func (b *Bridge) Injector() PromptInjector {
	return InjectorFunc{
		Label: "slash",
		Fn: func(ctx context.Context, id, text string) error {
			_, err := b.Execute(ctx, fmt.Sprintf("/inject id=%s position=chat %s", id, text))
			return err
		},
	}
}

func (b *Bridge) commandCallback(commandURL, name string) CommandCallback {
	return func(ctx context.Context, args map[string]string, payload string) (any, error) {
		return b.post(ctx, commandURL, map[string]any{
			"name":    name,
			"args":    args,
			"payload": payload,
		})
	}
}

func (b *Bridge) post(ctx context.Context, url string, body map[string]any) (any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("host returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Hosts that answer with bare text are fine too.
		return string(raw), nil
	}
	return decoded, nil
}
