package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alnah/go-chunkscribe/internal/lang"
)

// Config keys.
const (
	KeyChunkSize     = "chunk-size"
	KeyMinChunkSize  = "min-chunk-size"
	KeyModel         = "model"
	KeyProvider      = "provider"
	KeyTranscriber   = "transcriber"
	KeyLanguage      = "language"
	KeyListenAddr    = "listen-addr"
	KeyOutputDir     = "output-dir"
	KeyLogLevel      = "log-level"
	KeyMaxUploadMB   = "max-upload-mb"
	KeyMaxConcurrent = "max-concurrent"
)

// Keys lists every setting in display order.
var Keys = []string{
	KeyChunkSize, KeyMinChunkSize, KeyModel, KeyProvider, KeyTranscriber, KeyLanguage,
	KeyListenAddr, KeyOutputDir, KeyLogLevel, KeyMaxUploadMB, KeyMaxConcurrent,
}

// Environment variable fallbacks.
const (
	EnvOutputDir  = "CHUNKSCRIBE_OUTPUT_DIR"
	EnvListenAddr = "CHUNKSCRIBE_LISTEN_ADDR"
	EnvLogLevel   = "CHUNKSCRIBE_LOG_LEVEL"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultChunkSizeMB    = 10.0
	DefaultMinChunkSizeMB = 2.0
	DefaultModel          = "gemini-2.5-flash"
	DefaultProvider       = "gemini"
	DefaultTranscriber    = "groq"
	DefaultLanguage       = "th"
	DefaultListenAddr     = "127.0.0.1:3000"
	DefaultLogLevel       = "info"
	DefaultMaxUploadMB    = 500
	DefaultMaxConcurrent  = 2
)

// Config holds user configuration loaded from
// ~/.config/chunkscribe/config.yaml.
type Config struct {
	ChunkSizeMB    float64 `yaml:"chunk-size,omitempty"`
	MinChunkSizeMB float64 `yaml:"min-chunk-size,omitempty"`
	Model          string  `yaml:"model,omitempty"`
	Provider       string  `yaml:"provider,omitempty"`
	Transcriber    string  `yaml:"transcriber,omitempty"`
	Language       string  `yaml:"language,omitempty"`
	ListenAddr     string  `yaml:"listen-addr,omitempty"`
	OutputDir      string  `yaml:"output-dir,omitempty"`
	LogLevel       string  `yaml:"log-level,omitempty"`
	MaxUploadMB    int     `yaml:"max-upload-mb,omitempty"`
	MaxConcurrent  int     `yaml:"max-concurrent,omitempty"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/chunkscribe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chunkscribe"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "chunkscribe"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the configuration file, then fills unset values from the
// environment and finally from defaults.
// A missing file is not an error.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}

	cfg, err := readFile(p)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyEnv fills values not set in the file from environment variables.
func (c *Config) applyEnv() {
	if c.OutputDir == "" {
		c.OutputDir = os.Getenv(EnvOutputDir)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = os.Getenv(EnvListenAddr)
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv(EnvLogLevel)
	}
}

// ApplyDefaults sets every unset value to its default.
func (c *Config) ApplyDefaults() {
	if c.ChunkSizeMB == 0 {
		c.ChunkSizeMB = DefaultChunkSizeMB
	}
	if c.MinChunkSizeMB == 0 {
		c.MinChunkSizeMB = DefaultMinChunkSizeMB
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Transcriber == "" {
		c.Transcriber = DefaultTranscriber
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
}

// Validate checks values that ApplyDefaults cannot repair.
func (c Config) Validate() error {
	if c.MinChunkSizeMB <= 0 {
		return fmt.Errorf("%s must be positive: %w", KeyMinChunkSize, ErrInvalidValue)
	}
	if c.ChunkSizeMB < c.MinChunkSizeMB {
		return fmt.Errorf("%s %v is below %s %v: %w",
			KeyChunkSize, c.ChunkSizeMB, KeyMinChunkSize, c.MinChunkSizeMB, ErrInvalidValue)
	}
	switch c.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("%s %q (use gemini or openai): %w", KeyProvider, c.Provider, ErrInvalidValue)
	}
	switch c.Transcriber {
	case "groq", "openai":
	default:
		return fmt.Errorf("%s %q (use groq or openai): %w", KeyTranscriber, c.Transcriber, ErrInvalidValue)
	}
	if err := lang.Validate(c.Language); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s %q: %w", KeyLogLevel, c.LogLevel, ErrInvalidValue)
	}
	if c.MaxUploadMB < 0 || c.MaxConcurrent < 0 {
		return fmt.Errorf("%s and %s cannot be negative: %w", KeyMaxUploadMB, KeyMaxConcurrent, ErrInvalidValue)
	}
	return nil
}

// Set parses value and stores it under key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyChunkSize, KeyMinChunkSize:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("%s wants a positive number of megabytes, got %q: %w", key, value, ErrInvalidValue)
		}
		if key == KeyChunkSize {
			c.ChunkSizeMB = v
		} else {
			c.MinChunkSizeMB = v
		}
	case KeyMaxUploadMB, KeyMaxConcurrent:
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return fmt.Errorf("%s wants a positive integer, got %q: %w", key, value, ErrInvalidValue)
		}
		if key == KeyMaxUploadMB {
			c.MaxUploadMB = v
		} else {
			c.MaxConcurrent = v
		}
	case KeyModel:
		c.Model = value
	case KeyProvider:
		c.Provider = value
	case KeyTranscriber:
		c.Transcriber = value
	case KeyLanguage:
		if err := lang.Validate(value); err != nil {
			return err
		}
		c.Language = value
	case KeyListenAddr:
		c.ListenAddr = value
	case KeyOutputDir:
		c.OutputDir = value
	case KeyLogLevel:
		c.LogLevel = value
	default:
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

// Value returns the string form of key, or "" when unset or unknown.
func (c Config) Value(key string) string {
	switch key {
	case KeyChunkSize:
		return formatFloat(c.ChunkSizeMB)
	case KeyMinChunkSize:
		return formatFloat(c.MinChunkSizeMB)
	case KeyMaxUploadMB:
		return formatInt(c.MaxUploadMB)
	case KeyMaxConcurrent:
		return formatInt(c.MaxConcurrent)
	case KeyModel:
		return c.Model
	case KeyProvider:
		return c.Provider
	case KeyTranscriber:
		return c.Transcriber
	case KeyLanguage:
		return c.Language
	case KeyListenAddr:
		return c.ListenAddr
	case KeyOutputDir:
		return c.OutputDir
	case KeyLogLevel:
		return c.LogLevel
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// readFile decodes a YAML config file. Unknown keys are an error so that
// typos do not silently fall back to defaults.
func readFile(p string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", p, err)
	}
	return cfg, nil
}

// writeFile encodes cfg as YAML, leaving unset values out.
func writeFile(p string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Save writes a single key to the config file, keeping the other values.
// Creates the config directory and file if they don't exist.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	cfg, err := readFile(p)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return writeFile(p, cfg)
}

// Get reads a single value from the config file.
// Returns empty string if the key isn't set.
func Get(key string) (string, error) {
	if !isKey(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	p, err := path()
	if err != nil {
		return "", err
	}
	cfg, err := readFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return cfg.Value(key), nil
}

// List returns the values set in the config file.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	cfg, err := readFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	out := make(map[string]string)
	for _, k := range Keys {
		if v := cfg.Value(k); v != "" {
			out[k] = v
		}
	}
	return out, nil
}

func isKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
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

// ValidOutputDir checks that d exists (creating it if needed) and is a
// writable directory.
func ValidOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
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
		return fmt.Errorf("path is not a directory: %s", d)
	}

	probe, err := os.CreateTemp(d, ".chunkscribe-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
