// Package config loads user settings from
// $XDG_CONFIG_HOME/go-translate/config.yaml with TRANSLATE_* environment
// fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config keys.
const (
	KeyOutputDir       = "output-dir"
	KeyProvider        = "provider"
	KeyModel           = "model"
	KeyTemperature     = "temperature"
	KeyChunkTokens     = "chunk-tokens"
	KeyMaxChars        = "max-chars"
	KeyPricePer1K      = "price-per-1k"
	KeySummaryChars    = "summary-chars"
	KeyParallel        = "parallel"
	KeyCachePath       = "cache-path"
	KeyVertexProject   = "vertex-project"
	KeyVertexRegion    = "vertex-region"
	KeyDeepSeekBaseURL = "deepseek-base-url"
)

// envPrefix prefixes the environment fallback of every key:
// "chunk-tokens" falls back to TRANSLATE_CHUNK_TOKENS.
const envPrefix = "TRANSLATE_"

// Default values.
const (
	DefaultProvider     = "openai"
	DefaultModel        = "gpt-3.5-turbo"
	DefaultTemperature  = 0.3
	DefaultChunkTokens  = 3500
	DefaultMaxChars     = 30000
	DefaultSummaryChars = 4000
	DefaultParallel     = 1
	DefaultVertexRegion = "us-central1"
)

// DefaultPricePer1K is the default USD price per 1000 tokens.
var DefaultPricePer1K = decimal.RequireFromString("0.002")

// Providers lists the accepted provider names.
var Providers = []string{"openai", "deepseek", "vertex"}

// Config holds user configuration.
type Config struct {
	OutputDir       string
	Provider        string
	Model           string
	Temperature     float64
	ChunkTokens     int
	MaxChars        int
	PricePer1K      decimal.Decimal
	SummaryChars    int
	Parallel        int
	CachePath       string // empty disables the persistent cache
	VertexProject   string
	VertexRegion    string
	DeepSeekBaseURL string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:     DefaultProvider,
		Model:        DefaultModel,
		Temperature:  DefaultTemperature,
		ChunkTokens:  DefaultChunkTokens,
		MaxChars:     DefaultMaxChars,
		PricePer1K:   DefaultPricePer1K,
		SummaryChars: DefaultSummaryChars,
		Parallel:     DefaultParallel,
		VertexRegion: DefaultVertexRegion,
	}
}

// Keys returns every recognized key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// setters parse a raw value into the matching Config field.
var setters = map[string]func(*Config, string) error{
	KeyOutputDir: func(c *Config, v string) error { c.OutputDir = v; return nil },
	KeyProvider: func(c *Config, v string) error {
		v = strings.ToLower(v)
		for _, p := range Providers {
			if p == v {
				c.Provider = v
				return nil
			}
		}
		return fmt.Errorf("provider %q (want one of %s): %w", v, strings.Join(Providers, ", "), ErrInvalidValue)
	},
	KeyModel: func(c *Config, v string) error { c.Model = v; return nil },
	KeyTemperature: func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature %q (want 0-2): %w", v, ErrInvalidValue)
		}
		c.Temperature = f
		return nil
	},
	KeyChunkTokens:  positiveInt(func(c *Config, n int) { c.ChunkTokens = n }),
	KeyMaxChars:     positiveInt(func(c *Config, n int) { c.MaxChars = n }),
	KeySummaryChars: positiveInt(func(c *Config, n int) { c.SummaryChars = n }),
	KeyParallel:     positiveInt(func(c *Config, n int) { c.Parallel = n }),
	KeyPricePer1K: func(c *Config, v string) error {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("price %q: %w", v, ErrInvalidValue)
		}
		c.PricePer1K = d
		return nil
	},
	KeyCachePath:       func(c *Config, v string) error { c.CachePath = v; return nil },
	KeyVertexProject:   func(c *Config, v string) error { c.VertexProject = v; return nil },
	KeyVertexRegion:    func(c *Config, v string) error { c.VertexRegion = v; return nil },
	KeyDeepSeekBaseURL: func(c *Config, v string) error { c.DeepSeekBaseURL = v; return nil },
}

func positiveInt(set func(*Config, int)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%q is not a positive integer: %w", v, ErrInvalidValue)
		}
		set(c, n)
		return nil
	}
}

// Set parses value into the field named by key.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Validate checks a key/value pair without applying it.
func Validate(key, value string) error {
	c := Default()
	return c.Set(key, value)
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-translate.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-translate"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-translate"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// DefaultCachePath returns the cache database path inside the config directory.
func DefaultCachePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "cache.db"), nil
}

// Load reads the configuration file and environment variables on top of
// Default. Precedence: config file values, then environment variable
// fallbacks for keys the file does not set.
// A missing file is not an error.
func Load() (Config, error) {
	cfg := Default()

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	for _, key := range Keys() {
		value, ok := data[key]
		if !ok || value == "" {
			value = os.Getenv(EnvName(key))
		}
		if value == "" {
			continue
		}
		if err := cfg.Set(key, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// parseFile reads a flat YAML mapping of keys to scalar values.
func parseFile(p string) (map[string]string, error) {
	raw, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}

	data := make(map[string]string)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", p, err)
	}
	return data, nil
}

// Save writes a single key to the config file after validating it.
// Creates the config directory and file if they don't exist.
func Save(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = strings.TrimSpace(value)

	return writeFile(p, existing)
}

// writeFile writes the config map as YAML. yaml.v3 sorts map keys.
func writeFile(p string, data map[string]string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, out, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	if _, ok := setters[key]; !ok {
		return "", fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}

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

// List returns all values stored in the config file.
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

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is a writable directory, creating it when
// missing. A leading ~/ is expanded.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty: %w", ErrInvalidValue)
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", d, ErrNotDirectory)
	}

	f, err := os.CreateTemp(d, ".go-translate-write-test-*")
	if err != nil {
		return fmt.Errorf("%s: %w", d, ErrNotWritable)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name) // Best effort cleanup, ignore error

	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
