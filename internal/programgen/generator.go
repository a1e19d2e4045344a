package programgen

import (
	"context"
	"fmt"
	"log/slog"
)

// Generator produces training programs through a Completer.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// NewGenerator creates a Generator. A nil completer yields a generator
// whose Generate always returns ErrNotConfigured.
func NewGenerator(c Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: c, logger: logger}
}

// Generate validates req, prompts the model and parses its reply.
func (g *Generator) Generate(ctx context.Context, req Request) (*GeneratedProgram, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.completer == nil {
		return nil, ErrNotConfigured
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating program: %w", err)
	}

	program, err := ParseProgram(text)
	if err != nil {
		g.logger.Error("program reply did not decode", "error", err, "reply_len", len(text))
		return nil, err
	}

	g.logger.Info("program generated",
		"program", program.ProgramName,
		"split", program.SplitType,
		"days", len(program.Days),
	)
	return program, nil
}
