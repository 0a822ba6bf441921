package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-chunkscribe/internal/config"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	env, m := testEnv()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(testCmd(ctx), env, "127.0.0.1:0", "", "", "")
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServe() unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe() did not return after cancel")
	}
	out := m.stderr.String()
	if !strings.Contains(out, "Listening on http://127.0.0.1:0") || !strings.Contains(out, "Stopped") {
		t.Errorf("stderr = %q, want listen and stop lines", out)
	}
}

func TestRunServe_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       map[string]string
		chunkSize string
		language  string
		wantErr   error
	}{
		{name: "bad chunk size", chunkSize: "-3", wantErr: config.ErrInvalidValue},
		{name: "missing transcription key", env: map[string]string{EnvGeminiAPIKey: "g"}, wantErr: ErrAPIKeyMissing},
		{name: "missing summary key", env: map[string]string{EnvGroqAPIKey: "k"}, wantErr: ErrAPIKeyMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _ := testEnv()
			if tt.env != nil {
				env.Getenv = staticEnv(tt.env)
			}
			err := runServe(testCmd(context.Background()), env, "127.0.0.1:0", tt.chunkSize, "", tt.language)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runServe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
