// internal/image/generator.go
package image

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/inkwell/internal/host"
)

// Renderer is one way of asking the host to render an image. Capabilities
// differ per installation, so renderers are probed in order.
type Renderer interface {
	Name() string
	Render(ctx context.Context, prompt string) (string, error)
}

// Chain probes renderers most-direct first and returns the first usable
// image URL. It enhances the prompt with quality tags before rendering.
type Chain struct {
	renderers []Renderer
}

func NewChain(renderers ...Renderer) *Chain {
	return &Chain{renderers: renderers}
}

// Generate renders an image for the prompt, returning its URL. Every
// renderer failing is an error; callers decide whether a missing image is
// fatal.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	enhanced := Enhance(prompt)
	for _, r := range c.renderers {
		url, err := r.Render(ctx, enhanced)
		if err != nil {
			slog.Warn("image capability failed", "capability", r.Name(), "error", err)
			continue
		}
		if url == "" {
			slog.Warn("image capability returned no result", "capability", r.Name())
			continue
		}
		slog.Debug("image capability succeeded", "capability", r.Name())
		return url, nil
	}
	return "", fmt.Errorf("no image capability available")
}

// CommandRenderer drives the host's image command via its command registry.
type CommandRenderer struct {
	registry *host.CommandRegistry
	names    []string
}

func NewCommandRenderer(registry *host.CommandRegistry, names ...string) *CommandRenderer {
	if len(names) == 0 {
		names = []string{"sd", "draw", "imagine"}
	}
	return &CommandRenderer{registry: registry, names: names}
}

func (r *CommandRenderer) Name() string { return "command" }

func (r *CommandRenderer) Render(ctx context.Context, prompt string) (string, error) {
	name, callback, ok := r.registry.Lookup(r.names...)
	if !ok {
		return "", fmt.Errorf("no image command registered among %v", r.names)
	}
	raw, err := callback(ctx, map[string]string{"quiet": "true"}, prompt)
	if err != nil {
		return "", fmt.Errorf("command %s: %w", name, err)
	}
	return host.Normalize(raw), nil
}

// SlashRenderer runs the image command as a slash-command string.
type SlashRenderer struct {
	execute host.SlashExecutor
	command string
}

func NewSlashRenderer(execute host.SlashExecutor, command string) *SlashRenderer {
	if command == "" {
		command = "sd"
	}
	return &SlashRenderer{execute: execute, command: command}
}

func (r *SlashRenderer) Name() string { return "slash" }

func (r *SlashRenderer) Render(ctx context.Context, prompt string) (string, error) {
	raw, err := r.execute(ctx, fmt.Sprintf("/%s quiet=true %s", r.command, prompt))
	if err != nil {
		return "", err
	}
	return host.Normalize(raw), nil
}
