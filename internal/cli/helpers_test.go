package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/config"
)

const mb = 1024 * 1024

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
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	media          *mockMediaFactory
	transcriber    *mockTranscriberFactory
	summarizer     *mockSummarizerFactory
	stdout         *syncBuffer
	stderr         *syncBuffer
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv() (*Env, *testMocks) {
	m := &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		media:          &mockMediaFactory{},
		transcriber:    &mockTranscriberFactory{mock: &mockTranscriber{}},
		summarizer:     &mockSummarizerFactory{Summarizer: &mockSummarizer{}},
		stdout:         &syncBuffer{},
		stderr:         &syncBuffer{},
	}
	env := &Env{
		Stdout:             m.stdout,
		Stderr:             m.stderr,
		Getenv:             defaultTestEnv,
		Now:                fixedTime(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		FFmpegResolver:     m.ffmpegResolver,
		ConfigLoader:       m.configLoader,
		MediaFactory:       m.media,
		TranscriberFactory: m.transcriber,
		SummarizerFactory:  m.summarizer,
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns an API key for every provider.
func defaultTestEnv(key string) string {
	switch key {
	case EnvGroqAPIKey:
		return "test-groq-key"
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvGeminiAPIKey:
		return "test-gemini-key"
	default:
		return ""
	}
}

// createTestMediaFile writes sizeMB megabytes under name in a temp dir.
func createTestMediaFile(t *testing.T, name string, sizeMB int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, sizeMB*mb), 0644); err != nil {
		t.Fatalf("failed to create test media file: %v", err)
	}
	return path
}

// testCmd returns a command carrying ctx, as cobra does for RunE.
func testCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

// configWith returns a ConfigLoader yielding cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) { return cfg, nil },
	}
}
