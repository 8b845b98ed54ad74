package cli

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/controller"
	"github.com/alnah/go-formula/internal/model"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Diagnostics; user-facing messages go to Stderr instead.
	Logger *zap.Logger

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	ClientFactory ClientFactory
	Clipboard     controller.Clipboard
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// ClientFactory creates model clients.
type ClientFactory interface {
	// NewClient returns a *model.ConfigurationError when cfg.APIKey is empty.
	NewClient(ctx context.Context, cfg model.Config) (model.Client, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) {
		e.Stdin = r
	}
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = l
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithClientFactory sets the model client factory.
func WithClientFactory(f ClientFactory) EnvOption {
	return func(e *Env) {
		e.ClientFactory = f
	}
}

// WithClipboard sets the clipboard.
func WithClipboard(c controller.Clipboard) EnvOption {
	return func(e *Env) {
		e.Clipboard = c
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Logger:        zap.NewNop(),
		ConfigLoader:  &defaultConfigLoader{},
		ClientFactory: &defaultClientFactory{},
		Clipboard:     clipboardFunc(clipboard.WriteAll),
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultClientFactory implements ClientFactory using the model package.
type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(ctx context.Context, cfg model.Config) (model.Client, error) {
	return model.New(ctx, cfg)
}

// clipboardFunc adapts a write function to controller.Clipboard.
type clipboardFunc func(text string) error

func (f clipboardFunc) WriteAll(text string) error {
	return f(text)
}

// Compile-time interface verification.
var (
	_ ConfigLoader         = (*defaultConfigLoader)(nil)
	_ ClientFactory        = (*defaultClientFactory)(nil)
	_ controller.Clipboard = clipboardFunc(nil)
)
