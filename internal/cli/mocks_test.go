package cli

import (
	"context"
	"sync"

	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/model"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ClientFactory + Client
// ---------------------------------------------------------------------------

// mockClientFactory mirrors model.New: an empty API key yields a
// *model.ConfigurationError unless NewClientFunc overrides it.
type mockClientFactory struct {
	NewClientFunc func(ctx context.Context, cfg model.Config) (model.Client, error)
	client        *mockClient

	mu    sync.Mutex
	calls []model.Config
}

func (m *mockClientFactory) NewClient(ctx context.Context, cfg model.Config) (model.Client, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cfg)
	m.mu.Unlock()

	if m.NewClientFunc != nil {
		return m.NewClientFunc(ctx, cfg)
	}
	if cfg.APIKey == "" {
		return nil, &model.ConfigurationError{Provider: cfg.Provider.OrDefault()}
	}
	if m.client == nil {
		return &mockClient{}, nil
	}
	return m.client, nil
}

func (m *mockClientFactory) Calls() []model.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Config(nil), m.calls...)
}

type mockClient struct {
	CompleteFunc func(ctx context.Context, prompt string) (model.Completion, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (model.Completion, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return model.Completion{Text: sampleCompletion}, nil
}

func (m *mockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// ---------------------------------------------------------------------------
// Mock Clipboard
// ---------------------------------------------------------------------------

type mockClipboard struct {
	WriteAllFunc func(text string) error

	mu      sync.Mutex
	written []string
}

func (m *mockClipboard) WriteAll(text string) error {
	if m.WriteAllFunc != nil {
		if err := m.WriteAllFunc(text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, text)
	return nil
}

func (m *mockClipboard) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}
