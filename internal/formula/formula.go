// Package formula runs the description-to-formula pipeline:
// build a prompt, call the model, interpret the completion.
package formula

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/model"
	"github.com/alnah/go-formula/internal/prompt"
)

// Generator turns descriptions into formulas. It holds no per-request state
// and is safe for concurrent use.
type Generator struct {
	client  model.Client
	builder prompt.Builder
	logger  *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithBuilder sets the prompt builder (dialect and explanation language).
func WithBuilder(b prompt.Builder) Option {
	return func(g *Generator) {
		g.builder = b
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator calling client.
func NewGenerator(client model.Client, opts ...Option) *Generator {
	g := &Generator{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the formula and explanation for description.
//
// Errors: ErrEmptyDescription for blank input, the client's
// *model.ConfigurationError or *model.ProviderError, or an error wrapping
// interpret.ErrMalformedResponse when the completion cannot be split.
func (g *Generator) Generate(ctx context.Context, description string) (interpret.Result, error) {
	if strings.TrimSpace(description) == "" {
		return interpret.Result{}, ErrEmptyDescription
	}

	start := time.Now()
	completion, err := g.client.Complete(ctx, g.builder.Build(description))
	if err != nil {
		return interpret.Result{}, err
	}

	result, err := interpret.Interpret(completion.Text)
	if err != nil {
		g.logger.Debug("completion rejected",
			zap.Int("chars", len(completion.Text)),
			zap.Error(err))
		return interpret.Result{}, err
	}

	g.logger.Debug("formula generated",
		zap.String("dialect", g.builder.Dialect.OrDefault().String()),
		zap.Int("steps", len(result.Steps())),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
