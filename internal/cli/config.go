package cli

import (
	"fmt"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alnah/go-translate/internal/config"
)

// keyHelp describes each configuration key for help output.
var keyHelp = map[string]string{
	config.KeyOutputDir:       "Default directory for translated files",
	config.KeyProvider:        "Translation provider: openai, deepseek, vertex",
	config.KeyModel:           "Model name",
	config.KeyTemperature:     "Sampling temperature (0-2)",
	config.KeyChunkTokens:     "Maximum tokens per chunk",
	config.KeyMaxChars:        "Maximum characters per document",
	config.KeyPricePer1K:      "USD price per 1000 tokens for estimates",
	config.KeySummaryChars:    "Characters of the translation sent for summary",
	config.KeyParallel:        "Concurrent chunk requests per document (1-10)",
	config.KeyCachePath:       "SQLite translation cache file (empty: memory only)",
	config.KeyVertexProject:   "Google Cloud project for Vertex AI",
	config.KeyVertexRegion:    "Vertex AI region",
	config.KeyDeepSeekBaseURL: "DeepSeek API base URL",
}

// settingsHelp renders the key list shown in help text.
func settingsHelp() string {
	var out string
	for _, key := range config.Keys() {
		out += fmt.Sprintf("  %-18s %s (env: %s)\n", key, keyHelp[key], config.EnvName(key))
	}
	return out
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-translate/config.yaml.
Settings not present in the file fall back to environment variables.

Supported settings:
` + settingsHelp(),
		Example: `  translate config set output-dir ~/Documents/translations
  translate config set provider deepseek
  translate config get chunk-tokens
  translate config list`,
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

The value is validated before it is saved. For output-dir the directory
is created if it doesn't exist.`,
		Example: `  translate config set output-dir ~/Documents/translations
  translate config set price-per-1k 0.0015`,
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
		Example: `  translate config get output-dir`,
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
		Example: `  translate config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v): %w", key, config.Keys(), config.ErrUnknownKey)
	}

	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyCachePath:
		value = config.ExpandPath(value)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v): %w", key, config.Keys(), config.ErrUnknownKey)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvName(key))
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

	for _, key := range config.Keys() {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(config.EnvName(key)); envVal != "" {
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

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", k, data[k])
	}
	return nil
}

// isValidConfigKey checks if a key is a valid configuration key.
func isValidConfigKey(key string) bool {
	return slices.Contains(config.Keys(), key)
}
