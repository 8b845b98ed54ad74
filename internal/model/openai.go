package model

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/apierr"
)

// chatCompleter is the subset of *openai.Client used by OpenAIClient.
// *openai.Client implements this implicitly.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Client        = (*OpenAIClient)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIClient completes prompts with OpenAI's chat completion API.
type OpenAIClient struct {
	client chatCompleter
	settings
}

// NewOpenAI creates an OpenAI client.
// Returns a *ConfigurationError if apiKey is empty.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: OpenAIProvider}
	}

	s := defaultSettings(OpenAIProvider)
	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(s.baseURL, "/")
	}

	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), settings: s}, nil
}

// newOpenAIWithCompleter creates a client around a custom completer (for testing).
func newOpenAIWithCompleter(client chatCompleter, opts ...Option) *OpenAIClient {
	s := defaultSettings(OpenAIProvider)
	for _, opt := range opts {
		opt(&s)
	}
	return &OpenAIClient{client: client, settings: s}
}

// Complete sends prompt as a single user message and returns the reply.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	text, err := apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no response from OpenAI API")
		}
		return resp.Choices[0].Message.Content, nil
	}, apierr.IsRetryable)
	if err != nil {
		c.logger.Warn("openai completion failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return Completion{}, &ProviderError{Provider: OpenAIProvider, Err: err}
	}

	c.logger.Debug("openai completion",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return Completion{Text: text}, nil
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.Classify(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		if classified := apierr.Classify(reqErr.HTTPStatusCode, msg); classified != nil {
			return classified
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.Timeout(err)
	}

	return err
}
