// Package config reads and writes the user configuration file
// ($XDG_CONFIG_HOME/go-formula/config or ~/.config/go-formula/config).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// appName names the configuration directory.
const appName = "go-formula"

// Config keys.
const (
	KeyProvider   = "provider"
	KeyModel      = "model"
	KeyDialect    = "dialect"
	KeyLanguage   = "language"
	KeyMaxRetries = "max-retries"
	KeyTimeout    = "timeout"
)

// Environment variable fallbacks.
const (
	EnvProvider   = "FORMULA_PROVIDER"
	EnvModel      = "FORMULA_MODEL"
	EnvDialect    = "FORMULA_DIALECT"
	EnvLanguage   = "FORMULA_LANGUAGE"
	EnvMaxRetries = "FORMULA_MAX_RETRIES"
	EnvTimeout    = "FORMULA_TIMEOUT"
)

// envFallbacks maps each known key to its environment variable.
var envFallbacks = map[string]string{
	KeyProvider:   EnvProvider,
	KeyModel:      EnvModel,
	KeyDialect:    EnvDialect,
	KeyLanguage:   EnvLanguage,
	KeyMaxRetries: EnvMaxRetries,
	KeyTimeout:    EnvTimeout,
}

// Config holds user configuration.
// String fields are raw; callers validate them with the owning package
// (model.ParseProvider, prompt.ParseDialect, lang.Parse).
type Config struct {
	Provider   string
	Model      string
	Dialect    string
	Language   string
	MaxRetries int
	Timeout    time.Duration
}

// Keys returns the known config keys in display order.
func Keys() []string {
	return []string{KeyProvider, KeyModel, KeyDialect, KeyLanguage, KeyMaxRetries, KeyTimeout}
}

// IsKnownKey reports whether key is one of Keys().
func IsKnownKey(key string) bool {
	_, ok := envFallbacks[key]
	return ok
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-formula.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		data = make(map[string]string)
	}

	// Environment variable fallback (only if not set in config).
	for key, env := range envFallbacks {
		if data[key] == "" {
			data[key] = os.Getenv(env)
		}
	}

	cfg.Provider = data[KeyProvider]
	cfg.Model = data[KeyModel]
	cfg.Dialect = data[KeyDialect]
	cfg.Language = data[KeyLanguage]

	if v := data[KeyMaxRetries]; v != "" {
		if cfg.MaxRetries, err = ParseMaxRetries(v); err != nil {
			return Config{}, err
		}
	}
	if v := data[KeyTimeout]; v != "" {
		if cfg.Timeout, err = ParseTimeout(v); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// ParseMaxRetries parses a non-negative retry count.
func ParseMaxRetries(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s=%q (want a non-negative integer): %w", KeyMaxRetries, v, ErrInvalidValue)
	}
	return n, nil
}

// ParseTimeout parses a positive Go duration such as "30s".
func ParseTimeout(v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s=%q (want a positive duration like 30s): %w", KeyTimeout, v, ErrInvalidValue)
	}
	return d, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, ErrInvalidSyntax)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// validateKey rejects keys that would corrupt the file format.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "=\n\r#") {
		return fmt.Errorf("key %q contains a reserved character: %w", key, ErrInvalidKey)
	}
	return nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("value for %q contains a newline: %w", key, ErrInvalidValue)
	}

	p, err := path()
	if err != nil {
		return err
	}

	// Ensure config directory exists.
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		existing = make(map[string]string)
	}

	existing[key] = value
	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	w := bufio.NewWriter(f)
	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// Path returns the config file location.
func Path() (string, error) {
	return path()
}
