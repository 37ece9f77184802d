// internal/host/chain.go
package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/inkwell/pkg/llm"
)

// TextGenerator is one way of asking the host environment to generate text.
// The host surface is uncontrolled: any given installation may expose a
// direct API, a command registry, a slash-command runner, or none of them.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Chain tries generators in priority order; the first success wins.
type Chain struct {
	generators []TextGenerator
}

// NewChain creates a chain over the given generators, most direct first.
func NewChain(generators ...TextGenerator) *Chain {
	return &Chain{generators: generators}
}

// Generate asks each capability in turn and returns the first non-empty
// result. Per-generator failures are logged and the next one is tried;
// only when every capability fails does the chain return an error.
func (c *Chain) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	for _, gen := range c.generators {
		text, err := gen.Generate(ctx, prompt, maxTokens)
		if err != nil {
			slog.Warn("generation capability failed", "capability", gen.Name(), "error", err)
			continue
		}
		if text == "" {
			slog.Warn("generation capability returned empty output", "capability", gen.Name())
			continue
		}
		slog.Debug("generation capability succeeded", "capability", gen.Name())
		return text, nil
	}
	return "", fmt.Errorf("no generation capability available")
}

// ProviderGenerator is the most direct capability: an LLM provider reached
// over its own API.
type ProviderGenerator struct {
	provider llm.Provider
}

func NewProviderGenerator(provider llm.Provider) *ProviderGenerator {
	return &ProviderGenerator{provider: provider}
}

func (g *ProviderGenerator) Name() string { return "provider" }

func (g *ProviderGenerator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	resp, err := g.provider.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CommandGenerator drives a host command-registry callback, preferring the
// raw generation command over the chat-scoped one.
type CommandGenerator struct {
	registry *CommandRegistry
	names    []string
}

func NewCommandGenerator(registry *CommandRegistry, names ...string) *CommandGenerator {
	if len(names) == 0 {
		names = []string{"genraw", "gen"}
	}
	return &CommandGenerator{registry: registry, names: names}
}

func (g *CommandGenerator) Name() string { return "command" }

func (g *CommandGenerator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	name, callback, ok := g.registry.Lookup(g.names...)
	if !ok {
		return "", fmt.Errorf("no command registered among %v", g.names)
	}
	raw, err := callback(ctx, map[string]string{"quiet": "true"}, prompt)
	if err != nil {
		return "", fmt.Errorf("command %s: %w", name, err)
	}
	return Normalize(raw), nil
}

// SlashExecutor runs a slash-command string against the host, the least
// direct capability.
type SlashExecutor func(ctx context.Context, command string) (any, error)

type SlashGenerator struct {
	execute SlashExecutor
	command string
}

func NewSlashGenerator(execute SlashExecutor, command string) *SlashGenerator {
	if command == "" {
		command = "genraw"
	}
	return &SlashGenerator{execute: execute, command: command}
}

func (g *SlashGenerator) Name() string { return "slash" }

func (g *SlashGenerator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	raw, err := g.execute(ctx, fmt.Sprintf("/%s quiet=true %s", g.command, prompt))
	if err != nil {
		return "", err
	}
	return Normalize(raw), nil
}
