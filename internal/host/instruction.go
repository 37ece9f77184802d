// internal/host/instruction.go
package host

import (
	"context"
	"fmt"
	"log/slog"
)

// instructionID identifies the standing prompt in the host's extension
// prompt table.
const instructionID = "inkwell-date-marker"

// DateInstruction is the standing instruction injected into the host's
// prompt so the model prefixes each narrative turn with a machine-parseable
// date marker.
const DateInstruction = `[System: Write the current in-story date at the start of your response: {{RP_DATE: YYYY년 MM월 DD일}}]`

// PromptInjector is one way of installing a standing instruction into the
// host's prompt pipeline.
type PromptInjector interface {
	Name() string
	Inject(ctx context.Context, id, text string) error
}

// InjectorFunc adapts a function to the PromptInjector interface.
type InjectorFunc struct {
	Label string
	Fn    func(ctx context.Context, id, text string) error
}

func (f InjectorFunc) Name() string { return f.Label }

func (f InjectorFunc) Inject(ctx context.Context, id, text string) error {
	return f.Fn(ctx, id, text)
}

// InjectDateInstruction installs the date-marker instruction through the
// first injector that accepts it.
func InjectDateInstruction(ctx context.Context, injectors ...PromptInjector) error {
	for _, injector := range injectors {
		if err := injector.Inject(ctx, instructionID, DateInstruction); err != nil {
			slog.Warn("prompt injection failed", "injector", injector.Name(), "error", err)
			continue
		}
		slog.Info("date instruction injected", "injector", injector.Name())
		return nil
	}
	return fmt.Errorf("no prompt injection capability available")
}
