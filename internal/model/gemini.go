package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/alnah/go-formula/internal/apierr"
)

// contentGenerator is the subset of *genai.Models used by GeminiClient.
// It allows injecting mocks in tests.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Client           = (*GeminiClient)(nil)
	_ contentGenerator = (*genai.Models)(nil)
)

// GeminiClient completes prompts with Google's Gemini API.
type GeminiClient struct {
	models contentGenerator
	settings
}

// NewGemini creates a Gemini client.
// Returns a *ConfigurationError if apiKey is empty.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: GeminiProvider}
	}

	s := defaultSettings(GeminiProvider)
	for _, opt := range opts {
		opt(&s)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{models: client.Models, settings: s}, nil
}

// newGeminiWithGenerator creates a client around a custom generator (for testing).
func newGeminiWithGenerator(models contentGenerator, opts ...Option) *GeminiClient {
	s := defaultSettings(GeminiProvider)
	for _, opt := range opts {
		opt(&s)
	}
	return &GeminiClient{models: models, settings: s}
}

// Complete sends prompt as a single user turn and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
	}

	text, err := apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.models.GenerateContent(ctx, c.model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
		if err != nil {
			return "", classifyGeminiError(err)
		}
		return geminiText(resp)
	}, apierr.IsRetryable)
	if err != nil {
		c.logger.Warn("gemini completion failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return Completion{}, &ProviderError{Provider: GeminiProvider, Err: err}
	}

	c.logger.Debug("gemini completion",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return Completion{Text: text}, nil
}

// geminiText extracts the first candidate's text, reporting blocked prompts.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("no response from Gemini API")
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			msg := fb.BlockReasonMessage
			if msg == "" {
				msg = string(fb.BlockReason)
			}
			return "", fmt.Errorf("prompt blocked by Gemini: %s", msg)
		}
		return "", errors.New("no candidates in Gemini response")
	}
	return resp.Text(), nil
}

// classifyGeminiError maps genai errors to apierr sentinels.
func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.Classify(apiErr.Code, apiErr.Message); classified != nil {
			return classified
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.Timeout(err)
	}

	return err
}
