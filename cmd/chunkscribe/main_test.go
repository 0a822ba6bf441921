package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/cli"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "unknown error", err: errors.New("boom"), want: ExitGeneral},
		{name: "interrupt", err: fmt.Errorf("select file: %w", context.Canceled), want: ExitInterrupt},

		{name: "wrong arg count", err: errors.New("accepts 1 arg(s), received 0"), want: ExitUsage},
		{name: "unknown flag", err: errors.New("unknown flag: --fast"), want: ExitUsage},
		{name: "bad flag value", err: errors.New(`invalid argument "x" for "--max-concurrent" flag`), want: ExitUsage},

		{name: "ffmpeg missing", err: ffmpeg.ErrNotFound, want: ExitSetup},
		{name: "engine unavailable", err: fmt.Errorf("clip.mp4: %w", media.ErrEngineUnavailable), want: ExitSetup},
		{name: "cli key missing", err: fmt.Errorf("%w: GROQ_API_KEY", cli.ErrAPIKeyMissing), want: ExitSetup},
		{name: "invalid provider", err: cli.ErrInvalidProvider, want: ExitSetup},
		{name: "transcribe key missing", err: transcribe.ErrAPIKeyMissing, want: ExitSetup},
		{name: "unknown transcriber", err: transcribe.ErrUnknownProvider, want: ExitSetup},
		{name: "summarize key missing", err: summarize.ErrAPIKeyMissing, want: ExitSetup},

		{name: "file not found", err: cli.ErrFileNotFound, want: ExitValidation},
		{name: "unsupported format", err: cli.ErrUnsupportedFormat, want: ExitValidation},
		{name: "output exists", err: export.ErrOutputExists, want: ExitValidation},
		{name: "bad language", err: lang.ErrInvalid, want: ExitValidation},
		{name: "bad config value", err: config.ErrInvalidValue, want: ExitValidation},
		{name: "unknown config key", err: config.ErrUnknownKey, want: ExitValidation},
		{name: "unknown model", err: summarize.ErrUnknownModel, want: ExitValidation},
		{name: "video conversion", err: media.ErrVideoConversion, want: ExitValidation},

		{name: "all chunks failed", err: fmt.Errorf("%w: %w", cli.ErrTranscriptionFailed, apierr.ErrTimeout), want: ExitTranscription},
		{name: "rate limit", err: apierr.ErrRateLimit, want: ExitTranscription},
		{name: "auth failed", err: apierr.ErrAuthFailed, want: ExitTranscription},

		{name: "summary failed wraps api error", err: fmt.Errorf("%w: %w", cli.ErrSummaryFailed, apierr.ErrQuotaExceeded), want: ExitSummary},
		{name: "empty model response", err: summarize.ErrEmptyResponse, want: ExitSummary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd(cli.DefaultEnv())
	for _, name := range []string{"process", "split", "serve", "watch", "models", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestNewRootCmd_UsageErrorExitCode(t *testing.T) {
	t.Parallel()

	root := newRootCmd(cli.DefaultEnv())
	root.SetArgs([]string{"process"})
	err := root.ExecuteContext(context.Background())
	if got := exitCode(err); got != ExitUsage {
		t.Errorf("exitCode(%v) = %d, want %d", err, got, ExitUsage)
	}
}
