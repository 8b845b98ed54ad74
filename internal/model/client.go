// Package model adapts generative-AI providers to a single completion call.
//
// Credentials are passed explicitly to the constructors and checked once:
// a missing key yields a *ConfigurationError at construction time, never a
// nil client discovered mid-request. Upstream failures surface as
// *ProviderError carrying the provider's own message.
package model

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Default call settings shared by all providers.
const (
	// defaultTimeout bounds one completion call, retries included.
	defaultTimeout = 60 * time.Second

	// Retries are off by default: a failed generation is reported, not repeated.
	defaultMaxRetries = 0
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 10 * time.Second
)

// Completion is the unstructured text returned by a model.
type Completion struct {
	Text string
}

// Client sends a prompt to a model and returns its completion.
type Client interface {
	// Complete returns the full completion text for prompt, unmodified.
	// Errors are *ConfigurationError or *ProviderError.
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Config selects and configures a provider client.
type Config struct {
	Provider   Provider
	APIKey     string
	Model      string        // empty uses Provider.DefaultModel()
	Timeout    time.Duration // zero uses the default
	MaxRetries int
	BaseURL    string // optional endpoint override (proxies, tests)
	Logger     *zap.Logger
}

// New creates the client for cfg.Provider (Gemini when zero).
// Returns a *ConfigurationError if cfg.APIKey is empty.
func New(ctx context.Context, cfg Config) (Client, error) {
	opts := []Option{
		WithModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetries),
		WithBaseURL(cfg.BaseURL),
	}
	if cfg.Logger != nil {
		opts = append(opts, WithLogger(cfg.Logger))
	}

	switch cfg.Provider.OrDefault() {
	case OpenAIProvider:
		c, err := NewOpenAI(cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := NewGemini(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Unavailable returns a Client that fails every call with err.
// Used to keep a surface running when construction failed, so the error is
// shown on submit instead of aborting startup.
func Unavailable(err error) Client {
	return unavailableClient{err: err}
}

type unavailableClient struct {
	err error
}

func (u unavailableClient) Complete(context.Context, string) (Completion, error) {
	return Completion{}, u.err
}

// settings holds the options common to every provider client.
type settings struct {
	model      string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	baseURL    string
	logger     *zap.Logger
}

func defaultSettings(p Provider) settings {
	return settings{
		model:      p.DefaultModel(),
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		logger:     zap.NewNop(),
	}
}

// Option configures a provider client.
type Option func(*settings)

// WithModel sets the model name. Empty keeps the provider default.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithTimeout bounds a single Complete call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxRetries enables retries on transient errors (rate limit, timeout, 5xx).
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *settings) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
