package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-chunkscribe/internal/config"
)

// Tests touching the config file redirect XDG_CONFIG_HOME and therefore
// cannot run in parallel.

func TestIsValidConfigKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want bool
	}{
		{config.KeyOutputDir, true},
		{config.KeyChunkSize, true},
		{config.KeyMaxConcurrent, true},
		{"random-key", false},
		{"", false},
		{"output_dir", false},
	}

	for _, tt := range tests {
		if got := isValidConfigKey(tt.key); got != tt.want {
			t.Errorf("isValidConfigKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func configTestEnv(t *testing.T, vars map[string]string) (*Env, *testMocks) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	env, m := testEnv()
	env.Getenv = staticEnv(vars)
	return env, m
}

func TestRunConfigSet_StoresValue(t *testing.T) {
	env, m := configTestEnv(t, nil)

	if err := runConfigSet(env, config.KeyChunkSize, "5"); err != nil {
		t.Fatalf("runConfigSet() unexpected error: %v", err)
	}
	if !strings.Contains(m.stderr.String(), "Set chunk-size = 5") {
		t.Errorf("stderr = %q, want confirmation", m.stderr.String())
	}

	got, err := config.Get(config.KeyChunkSize)
	if err != nil {
		t.Fatalf("config.Get() unexpected error: %v", err)
	}
	if got != "5" {
		t.Errorf("stored chunk-size = %q, want %q", got, "5")
	}
}

func TestRunConfigSet_OutputDirIsCreated(t *testing.T) {
	env, _ := configTestEnv(t, nil)
	outDir := filepath.Join(t.TempDir(), "transcripts")

	if err := runConfigSet(env, config.KeyOutputDir, outDir); err != nil {
		t.Fatalf("runConfigSet() unexpected error: %v", err)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Errorf("output dir %s not created: %v", outDir, err)
	}
}

func TestRunConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "unknown key", key: "colour", value: "red", wantErr: config.ErrUnknownKey},
		{name: "bad chunk size", key: config.KeyChunkSize, value: "big", wantErr: config.ErrInvalidValue},
		{name: "negative concurrency", key: config.KeyMaxConcurrent, value: "-1", wantErr: config.ErrInvalidValue},
		{name: "transcriber cannot be gemini", key: config.KeyTranscriber, value: "gemini", wantErr: ErrInvalidProvider},
		{name: "summarizer cannot be groq", key: config.KeyProvider, value: "groq", wantErr: ErrInvalidProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := configTestEnv(t, nil)

			err := runConfigSet(env, tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runConfigSet(%q, %q) error = %v, want %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestRunConfigGet(t *testing.T) {
	env, m := configTestEnv(t, map[string]string{config.EnvLogLevel: "debug"})

	if err := runConfigSet(env, config.KeyModel, "gemini-2.5-pro"); err != nil {
		t.Fatalf("runConfigSet() unexpected error: %v", err)
	}
	if err := runConfigGet(env, config.KeyModel); err != nil {
		t.Fatalf("runConfigGet(model) unexpected error: %v", err)
	}
	if err := runConfigGet(env, config.KeyLogLevel); err != nil {
		t.Fatalf("runConfigGet(log-level) unexpected error: %v", err)
	}
	if err := runConfigGet(env, config.KeyLanguage); err != nil {
		t.Fatalf("runConfigGet(language) unexpected error: %v", err)
	}

	if got, want := m.stdout.String(), "gemini-2.5-pro\ndebug\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if err := runConfigGet(env, "nope"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("runConfigGet(nope) error = %v, want ErrUnknownKey", err)
	}
}

func TestRunConfigList_Empty(t *testing.T) {
	env, m := configTestEnv(t, nil)

	if err := runConfigList(env); err != nil {
		t.Fatalf("runConfigList() unexpected error: %v", err)
	}
	out := m.stdout.String()
	if !strings.Contains(out, "No configuration set.") {
		t.Errorf("stdout = %q, want empty notice", out)
	}
	for _, key := range config.Keys {
		if !strings.Contains(out, "  "+key+"\n") {
			t.Errorf("stdout missing available key %q", key)
		}
	}
}

func TestRunConfigList_FileAndEnv(t *testing.T) {
	env, m := configTestEnv(t, map[string]string{
		config.EnvListenAddr: "0.0.0.0:8080",
		config.EnvLogLevel:   "warn",
	})

	if err := runConfigSet(env, config.KeyLogLevel, "error"); err != nil {
		t.Fatalf("runConfigSet() unexpected error: %v", err)
	}
	if err := runConfigSet(env, config.KeyChunkSize, "4"); err != nil {
		t.Fatalf("runConfigSet() unexpected error: %v", err)
	}
	if err := runConfigList(env); err != nil {
		t.Fatalf("runConfigList() unexpected error: %v", err)
	}

	want := "chunk-size=4\nlisten-addr=0.0.0.0:8080 (from env)\nlog-level=error\n"
	if got := m.stdout.String(); got != want {
		t.Errorf("stdout =\n%s\nwant\n%s", got, want)
	}
}
