package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-formula/internal/config"
	"github.com/alnah/go-formula/internal/lang"
	"github.com/alnah/go-formula/internal/model"
	"github.com/alnah/go-formula/internal/prompt"
)

// envFallbacks maps config keys to the environment variables read when unset.
var envFallbacks = map[string]string{
	config.KeyProvider:   config.EnvProvider,
	config.KeyModel:      config.EnvModel,
	config.KeyDialect:    config.EnvDialect,
	config.KeyLanguage:   config.EnvLanguage,
	config.KeyMaxRetries: config.EnvMaxRetries,
	config.KeyTimeout:    config.EnvTimeout,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-formula/config.
Settings can also be provided via environment variables; command flags
override both.

Supported settings:
  provider      Model provider: gemini, openai   (env: FORMULA_PROVIDER)
  model         Model name                       (env: FORMULA_MODEL)
  dialect       google-sheets, excel, libreoffice (env: FORMULA_DIALECT)
  language      Explanation language, e.g. fr    (env: FORMULA_LANGUAGE)
  max-retries   Retries on transient API errors  (env: FORMULA_MAX_RETRIES)
  timeout       Per-request timeout, e.g. 30s    (env: FORMULA_TIMEOUT)`,
		Example: `  formula config set dialect excel
  formula config get provider
  formula config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

The value is validated before it is saved.`,
		Example: `  formula config set provider openai
  formula config set timeout 30s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  formula config get dialect`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  formula config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	normalized, err := normalizeConfigValue(key, value)
	if err != nil {
		return err
	}

	if err := config.Save(key, normalized); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, normalized)
	return nil
}

// normalizeConfigValue validates value for key and returns its canonical form.
func normalizeConfigValue(key, value string) (string, error) {
	switch key {
	case config.KeyProvider:
		p, err := model.ParseProvider(value)
		if err != nil {
			return "", err
		}
		return p.OrDefault().String(), nil
	case config.KeyDialect:
		d, err := prompt.ParseDialect(value)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	case config.KeyLanguage:
		l, err := lang.Parse(value)
		if err != nil {
			return "", err
		}
		return l.String(), nil
	case config.KeyMaxRetries:
		n, err := config.ParseMaxRetries(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprint(n), nil
	case config.KeyTimeout:
		d, err := config.ParseTimeout(value)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	default:
		return strings.TrimSpace(value), nil
	}
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		value = env.Getenv(envFallbacks[key])
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	for _, key := range config.Keys() {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(envFallbacks[key]); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range config.Keys() {
		if value, ok := data[key]; ok {
			fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
		}
	}

	return nil
}

func unknownKeyError(key string) error {
	return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(config.Keys(), ", "), ErrUnknownConfigKey)
}
