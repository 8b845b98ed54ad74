package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/model"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader  *mockConfigLoader
	clientFactory *mockClientFactory
	client        *mockClient
	clipboard     *mockClipboard
	stdout        *syncBuffer
	stderr        *syncBuffer
}

func newTestMocks() *testMocks {
	client := &mockClient{}
	return &testMocks{
		configLoader:  &mockConfigLoader{},
		clientFactory: &mockClientFactory{client: client},
		client:        client,
		clipboard:     &mockClipboard{},
		stdout:        &syncBuffer{},
		stderr:        &syncBuffer{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	stdin  io.Reader
	getenv func(string) string
	mocks  *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withStdin(s string) testEnvOption {
	return func(o *testEnvOptions) { o.stdin = strings.NewReader(s) }
}

func withGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		stdin:  strings.NewReader(""),
		getenv: defaultTestEnv,
		mocks:  newTestMocks(),
	}

	for _, opt := range opts {
		opt(options)
	}

	env := &Env{
		Stdin:         options.stdin,
		Stdout:        options.mocks.stdout,
		Stderr:        options.mocks.stderr,
		Getenv:        options.getenv,
		Logger:        zap.NewNop(),
		ConfigLoader:  options.mocks.configLoader,
		ClientFactory: options.mocks.clientFactory,
		Clipboard:     options.mocks.clipboard,
	}

	return env, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const sampleCompletion = "FORMULA:\n=SUMIF(B:B,\"yes\",A:A)\n\nEXPLANATION:\n1. Checks each row in column B.\n2. Sums corresponding A values where B is yes."

const sampleFormula = `=SUMIF(B:B,"yes",A:A)`

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for both providers.
func defaultTestEnv(key string) string {
	switch key {
	case model.GeminiProvider.EnvVar():
		return "test-gemini-key"
	case model.OpenAIProvider.EnvVar():
		return "test-openai-key"
	default:
		return ""
	}
}

// configWith returns a ConfigLoader that returns cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return cfg, nil
		},
	}
}

// testCmd returns a bare command carrying ctx, as cobra does for RunE.
func testCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

// replying returns a completion func that always answers text.
func replying(text string) func(context.Context, string) (model.Completion, error) {
	return func(context.Context, string) (model.Completion, error) {
		return model.Completion{Text: text}, nil
	}
}

// failing returns a completion func that always fails with err.
func failing(err error) func(context.Context, string) (model.Completion, error) {
	return func(context.Context, string) (model.Completion, error) {
		return model.Completion{}, err
	}
}

// assertContains fails if s does not contain substr.
func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("output missing %q:\n%s", substr, s)
	}
}
