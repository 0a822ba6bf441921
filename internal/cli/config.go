package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/config"
)

// envFallbacks maps keys to the environment variable read when the config
// file leaves them unset.
var envFallbacks = map[string]string{
	config.KeyOutputDir:  config.EnvOutputDir,
	config.KeyListenAddr: config.EnvListenAddr,
	config.KeyLogLevel:   config.EnvLogLevel,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/chunkscribe/config.yaml.
output-dir, listen-addr and log-level fall back to CHUNKSCRIBE_OUTPUT_DIR,
CHUNKSCRIBE_LISTEN_ADDR and CHUNKSCRIBE_LOG_LEVEL when not set in the file.

Supported settings:
  chunk-size       Chunk size in megabytes (default 10)
  min-chunk-size   Smallest accepted chunk size in megabytes (default 2)
  model            Summarization model (default gemini-2.5-flash)
  provider         Summarization provider: gemini, openai
  transcriber      Transcription provider: groq, openai
  language         Audio and summary language (default th)
  listen-addr      serve address (default 127.0.0.1:3000)
  output-dir       Default directory for output files
  log-level        debug, info, warn, error
  max-upload-mb    serve upload limit (default 500)
  max-concurrent   Files processed at once by watch (default 2)`,
		Example: `  chunkscribe config set output-dir ~/Documents/transcripts
  chunkscribe config set chunk-size 5
  chunkscribe config get model
  chunkscribe config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

For output-dir, the directory is created if it doesn't exist.`,
		Example: `  chunkscribe config set output-dir ~/Documents/transcripts
  chunkscribe config set transcriber openai`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  chunkscribe config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows values from the config file and environment variable fallbacks.`,
		Example: `  chunkscribe config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet validates value for key and saves it.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys, ", "))
	}

	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.ValidOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyProvider:
		if _, err := ParseProvider(RoleSummarizer, value); err != nil {
			return err
		}
	case config.KeyTranscriber:
		if _, err := ParseProvider(RoleTranscriber, value); err != nil {
			return err
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet prints the file value, or the environment fallback.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys, ", "))
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		if name, ok := envFallbacks[key]; ok {
			value = env.Getenv(name)
		}
	}
	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints key=value lines in key order.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for key, name := range envFallbacks {
		if _, ok := data[key]; ok {
			continue
		}
		if v := env.Getenv(name); v != "" {
			data[key] = v + " (from env)"
		}
	}

	if len(data) == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No configuration set.")
		_, _ = fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			_, _ = fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range config.Keys {
		if v, ok := data[key]; ok {
			_, _ = fmt.Fprintf(env.Stdout, "%s=%s\n", key, v)
		}
	}
	return nil
}

func isValidConfigKey(key string) bool {
	return slices.Contains(config.Keys, key)
}
