package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-formula/internal/apierr"
	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/lang"
	"github.com/alnah/go-formula/internal/model"
	"github.com/alnah/go-formula/internal/prompt"
)

// Notes:
// - runGenerate is driven with a bare cobra.Command carrying the context
// - The client factory mock fails with ConfigurationError on empty keys,
//   so missing-credential paths run without network access

// ---------------------------------------------------------------------------
// TestRunGenerate - Success paths
// ---------------------------------------------------------------------------

func TestRunGenerate_PrintsFormulaAndSteps(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv()

	err := runGenerate(testCmd(context.Background()), env,
		[]string{"sum of column A", "where column B is yes"}, generationFlags{}, false, false)
	if err != nil {
		t.Fatalf("runGenerate() unexpected error: %v", err)
	}

	want := sampleFormula + "\n\n1. Checks each row in column B.\n2. Sums corresponding A values where B is yes.\n"
	if got := mocks.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	assertContains(t, mocks.stderr.String(), "Generating Google Sheets formula")

	prompts := mocks.client.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("client called %d times, want 1", len(prompts))
	}
	assertContains(t, prompts[0], "sum of column A where column B is yes")
}

func TestRunGenerate_JSON(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv()

	if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, false, true); err != nil {
		t.Fatalf("runGenerate() unexpected error: %v", err)
	}

	var got resultJSON
	if err := json.Unmarshal([]byte(mocks.stdout.String()), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	want := resultJSON{
		Formula:     sampleFormula,
		Explanation: "1. Checks each row in column B.\n2. Sums corresponding A values where B is yes.",
		Steps:       []string{"1. Checks each row in column B.", "2. Sums corresponding A values where B is yes."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(mocks.stderr.String(), "Generating") {
		t.Error("progress message printed in JSON mode")
	}
}

func TestRunGenerate_ReadsStdin(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withStdin("  count non-empty cells in C \n"))

	if err := runGenerate(testCmd(context.Background()), env, nil, generationFlags{}, false, false); err != nil {
		t.Fatalf("runGenerate() unexpected error: %v", err)
	}
	assertContains(t, mocks.client.Prompts()[0], "count non-empty cells in C")
}

func TestRunGenerate_Copy(t *testing.T) {
	t.Parallel()

	t.Run("writes formula to clipboard", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, true, false); err != nil {
			t.Fatalf("runGenerate() unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{sampleFormula}, mocks.clipboard.Written()); diff != "" {
			t.Errorf("clipboard mismatch (-want +got):\n%s", diff)
		}
		assertContains(t, mocks.stderr.String(), "Copied to clipboard.")
	})

	t.Run("clipboard failure is a warning", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.clipboard.WriteAllFunc = func(string) error { return errors.New("no display") }

		if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, true, false); err != nil {
			t.Fatalf("runGenerate() unexpected error: %v", err)
		}
		assertContains(t, mocks.stderr.String(), "Warning: copying formula: no display")
		if mocks.stdout.String() == "" {
			t.Error("result not printed before copy failure")
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunGenerate_Settings - flag > config > default
// ---------------------------------------------------------------------------

func TestRunGenerate_Settings(t *testing.T) {
	t.Parallel()

	t.Run("defaults to gemini and google sheets", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, false, false); err != nil {
			t.Fatalf("runGenerate() unexpected error: %v", err)
		}

		calls := mocks.clientFactory.Calls()
		if len(calls) != 1 {
			t.Fatalf("NewClient called %d times, want 1", len(calls))
		}
		if calls[0].Provider != model.GeminiProvider || calls[0].APIKey != "test-gemini-key" {
			t.Errorf("client config = %+v, want gemini with its key", calls[0])
		}
		if mocks.client.Prompts()[0] != prompt.Build("x") {
			t.Error("prompt differs from the default builder output")
		}
	})

	t.Run("config file values", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.configLoader = configWith(config.Config{
			Provider:   "openai",
			Model:      "gpt-4.1-mini",
			Dialect:    "excel",
			MaxRetries: 2,
			Timeout:    15 * time.Second,
		})
		env.ConfigLoader = mocks.configLoader

		if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, false, false); err != nil {
			t.Fatalf("runGenerate() unexpected error: %v", err)
		}

		got := mocks.clientFactory.Calls()[0]
		got.Logger = nil
		want := model.Config{
			Provider:   model.OpenAIProvider,
			APIKey:     "test-openai-key",
			Model:      "gpt-4.1-mini",
			Timeout:    15 * time.Second,
			MaxRetries: 2,
		}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(model.Provider{})); diff != "" {
			t.Errorf("client config mismatch (-want +got):\n%s", diff)
		}
		assertContains(t, mocks.client.Prompts()[0], "Microsoft Excel")
	})

	t.Run("flags override config", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		env.ConfigLoader = configWith(config.Config{Provider: "openai", Dialect: "excel", Language: "de"})

		flags := generationFlags{provider: "gemini", dialect: "libreoffice", language: "fr", model: "gemini-2.0-flash"}
		if err := runGenerate(testCmd(context.Background()), env, []string{"x"}, flags, false, false); err != nil {
			t.Fatalf("runGenerate() unexpected error: %v", err)
		}

		got := mocks.clientFactory.Calls()[0]
		if got.Provider != model.GeminiProvider || got.Model != "gemini-2.0-flash" {
			t.Errorf("client config = %+v, want gemini-2.0-flash", got)
		}
		wantPrompt := prompt.Builder{Dialect: prompt.LibreOfficeDialect, Language: lang.MustParse("fr")}.Build("x")
		if mocks.client.Prompts()[0] != wantPrompt {
			t.Errorf("prompt = %q, want LibreOffice/French prompt", mocks.client.Prompts()[0])
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunGenerate_Errors
// ---------------------------------------------------------------------------

func TestRunGenerate_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		stdin   string
		flags   generationFlags
		wantErr error
	}{
		{"no args and empty stdin", nil, "", generationFlags{}, ErrNoDescription},
		{"whitespace stdin", nil, "   \n", generationFlags{}, ErrNoDescription},
		{"blank args", []string{"  ", ""}, "", generationFlags{}, ErrNoDescription},
		{"unknown provider", []string{"x"}, "", generationFlags{provider: "deepseek"}, model.ErrInvalidProvider},
		{"unknown dialect", []string{"x"}, "", generationFlags{dialect: "numbers"}, prompt.ErrUnknownDialect},
		{"invalid language", []string{"x"}, "", generationFlags{language: "not a language"}, lang.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, mocks := testEnv(withStdin(tt.stdin))
			err := runGenerate(testCmd(context.Background()), env, tt.args, tt.flags, false, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("runGenerate() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(mocks.client.Prompts()); n != 0 {
				t.Errorf("client called %d times, want 0", n)
			}
		})
	}
}

func TestRunGenerate_ConfigLoadError(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv()
	env.ConfigLoader = &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return config.Config{}, config.ErrInvalidSyntax
		},
	}

	err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, false, false)
	if !errors.Is(err, config.ErrInvalidSyntax) {
		t.Errorf("runGenerate() error = %v, want ErrInvalidSyntax", err)
	}
	if n := len(mocks.clientFactory.Calls()); n != 0 {
		t.Errorf("NewClient called %d times, want 0", n)
	}
}

func TestRunGenerate_GenerationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		getenv     func(string) string
		complete   func(context.Context, string) (model.Completion, error)
		wantReason string
		wantIs     error
	}{
		{
			name:       "missing key",
			getenv:     staticEnv(nil),
			wantReason: "API key not configured. Please set GEMINI_API_KEY to continue.",
			wantIs:     model.ErrConfiguration,
		},
		{
			name: "provider error",
			complete: failing(&model.ProviderError{
				Provider: model.GeminiProvider,
				Err:      apierr.Classify(http.StatusTooManyRequests, "You exceeded your current quota."),
			}),
			wantReason: "Failed to generate formula: You exceeded your current quota.",
			wantIs:     apierr.ErrQuotaExceeded,
		},
		{
			name:       "malformed response",
			complete:   replying("I can't help with spreadsheets."),
			wantReason: "Failed to parse AI response correctly",
			wantIs:     interpret.ErrMalformedResponse,
		},
		{
			name:       "unexpected error",
			complete:   failing(errors.New("boom")),
			wantReason: "An error occurred while generating the formula",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := []testEnvOption{}
			if tt.getenv != nil {
				opts = append(opts, withGetenv(tt.getenv))
			}
			env, mocks := testEnv(opts...)
			mocks.client.CompleteFunc = tt.complete

			err := runGenerate(testCmd(context.Background()), env, []string{"x"}, generationFlags{}, true, false)

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("runGenerate() error = %v, want *GenerationError", err)
			}
			if genErr.Error() != tt.wantReason {
				t.Errorf("reason = %q, want %q", genErr.Error(), tt.wantReason)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error does not wrap %v", tt.wantIs)
			}
			if mocks.stdout.String() != "" {
				t.Errorf("stdout = %q, want nothing on failure", mocks.stdout.String())
			}
			if n := len(mocks.clipboard.Written()); n != 0 {
				t.Errorf("clipboard written %d times on failure", n)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestReadDescription
// ---------------------------------------------------------------------------

func TestReadDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr bool
	}{
		{"args joined", "", []string{"a", "b c"}, "a b c", false},
		{"args win over stdin", "ignored", []string{"a"}, "a", false},
		{"stdin trimmed", "\n  desc  \n", nil, "desc", false},
		{"multi-line stdin kept", "line one\nline two\n", nil, "line one\nline two", false},
		{"empty stdin", "", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := readDescription(strings.NewReader(tt.stdin), tt.args)
			if tt.wantErr {
				if !errors.Is(err, ErrNoDescription) {
					t.Errorf("readDescription() error = %v, want ErrNoDescription", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("readDescription() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readDescription() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("nil stdin", func(t *testing.T) {
		t.Parallel()
		if _, err := readDescription(nil, nil); !errors.Is(err, ErrNoDescription) {
			t.Errorf("readDescription(nil) error = %v, want ErrNoDescription", err)
		}
	})
}
