package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-formula/internal/apierr"
	"github.com/alnah/go-formula/internal/cli"
	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/formula"
	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/lang"
	"github.com/alnah/go-formula/internal/logging"
	"github.com/alnah/go-formula/internal/model"
	"github.com/alnah/go-formula/internal/prompt"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitProvider   = 5
	ExitResponse   = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()
	rootCmd, closeLog := newRootCmd(env)

	err := rootCmd.ExecuteContext(ctx)
	_ = closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd builds the command tree around env.
// The returned function flushes and closes the diagnostics log.
func newRootCmd(env *cli.Env) (*cobra.Command, func() error) {
	var (
		verbose  bool
		logFile  string
		closeLog = func() error { return nil }
	)

	rootCmd := &cobra.Command{
		Use:   "formula",
		Short: "Generate spreadsheet formulas from plain-language descriptions",
		Long: `Generate spreadsheet formulas from plain-language descriptions.

A language model writes the formula and a step-by-step explanation.
Provider credentials are read from GEMINI_API_KEY or OPENAI_API_KEY
(a .env file in the working directory is loaded automatically).`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !wantsLogs(cmd, verbose, logFile) {
				return nil
			}
			logger, cleanup := logging.New(logging.Config{
				Verbose: verbose,
				File:    logFile,
				Stderr:  env.Stderr,
			})
			env.Logger = logger
			closeLog = cleanup
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics at debug level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write diagnostics to a rotating log file")

	rootCmd.AddCommand(cli.GenerateCmd(env))
	rootCmd.AddCommand(cli.InteractiveCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd, func() error { return closeLog() }
}

// wantsLogs reports whether diagnostics are enabled for cmd.
// The server always logs requests; other commands stay quiet unless asked.
func wantsLogs(cmd *cobra.Command, verbose bool, logFile string) bool {
	return verbose || logFile != "" || cmd.Name() == "serve"
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, model.ErrConfiguration) || errors.Is(err, config.ErrInvalidSyntax) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, config.ErrInvalidKey) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, model.ErrInvalidProvider) || errors.Is(err, prompt.ErrUnknownDialect) ||
		errors.Is(err, lang.ErrInvalid) || errors.Is(err, cli.ErrNoDescription) ||
		errors.Is(err, cli.ErrUnknownConfigKey) || errors.Is(err, formula.ErrEmptyDescription) {
		return ExitValidation
	}

	// Provider errors (ExitProvider = 5).
	var provErr *model.ProviderError
	if errors.As(err, &provErr) || errors.Is(err, apierr.ErrRateLimit) ||
		errors.Is(err, apierr.ErrQuotaExceeded) || errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrAuthFailed) {
		return ExitProvider
	}

	// Response errors (ExitResponse = 6).
	if errors.Is(err, interpret.ErrMalformedResponse) {
		return ExitResponse
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Matched last: provider messages such as "invalid argument" must not
	// be mistaken for usage errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
