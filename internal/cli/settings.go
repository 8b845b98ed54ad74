package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/formula"
	"github.com/alnah/go-formula/internal/lang"
	"github.com/alnah/go-formula/internal/model"
	"github.com/alnah/go-formula/internal/prompt"
)

// generationFlags are the flags shared by generate, interactive and serve.
// Empty values defer to the config file, then the environment.
type generationFlags struct {
	provider string
	model    string
	dialect  string
	language string
}

func (f *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider: gemini, openai (default gemini)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "Spreadsheet dialect: google-sheets, excel, libreoffice")
	cmd.Flags().StringVarP(&f.language, "lang", "l", "", "Explanation language (e.g., en, fr, pt-BR)")
}

// setup is the resolved generation pipeline for one command run.
type setup struct {
	generator *formula.Generator
	provider  model.Provider
	dialect   prompt.Dialect
	// unavailable is the construction error when no credential is configured.
	// The generator still works and reports it on every request.
	unavailable error
}

// newSetup resolves flags, config and credentials into a generator.
// Validation order: config -> provider -> dialect -> language -> client.
// A missing credential is not returned here: the client reports it per request.
func newSetup(ctx context.Context, env *Env, flags generationFlags) (*setup, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	provider, err := model.ParseProvider(firstNonEmpty(flags.provider, cfg.Provider))
	if err != nil {
		return nil, err
	}
	provider = provider.OrDefault()

	dialect, err := prompt.ParseDialect(firstNonEmpty(flags.dialect, cfg.Dialect))
	if err != nil {
		return nil, err
	}

	language, err := lang.Parse(firstNonEmpty(flags.language, cfg.Language))
	if err != nil {
		return nil, err
	}

	s := &setup{provider: provider, dialect: dialect.OrDefault()}

	client, err := env.ClientFactory.NewClient(ctx, model.Config{
		Provider:   provider,
		APIKey:     env.Getenv(provider.EnvVar()),
		Model:      firstNonEmpty(flags.model, cfg.Model),
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     env.Logger,
	})
	if err != nil {
		if !errors.Is(err, model.ErrConfiguration) {
			return nil, err
		}
		env.Logger.Warn("model client unavailable",
			zap.Stringer("provider", provider),
			zap.Error(err))
		s.unavailable = err
		client = model.Unavailable(err)
	}

	s.generator = formula.NewGenerator(client,
		formula.WithBuilder(prompt.Builder{Dialect: dialect, Language: language}),
		formula.WithLogger(env.Logger))
	return s, nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
