package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/cli"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/interrupt"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitSummary       = 6
	ExitInterrupt     = interrupt.ExitInterrupt
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	// First Ctrl+C cancels ctx so serve and watch can drain; a second one
	// within two seconds exits at once.
	h, ctx := interrupt.Watch(context.Background())
	err := newRootCmd(cli.DefaultEnv()).ExecuteContext(ctx)
	h.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(env *cli.Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "chunkscribe",
		Short: "Split, transcribe and summarize long recordings",
		Long: `chunkscribe converts audio or video to MP3, splits it into size-bounded
chunks, transcribes each chunk and summarizes the whole transcript.

Run it once on a file (process), keep a local API running (serve), or
watch an inbox directory (watch).`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Errors are printed once by main with the matching exit code.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(cli.ProcessCmd(env))
	root.AddCommand(cli.SplitCmd(env))
	root.AddCommand(cli.ServeCmd(env))
	root.AddCommand(cli.WatchCmd(env))
	root.AddCommand(cli.ModelsCmd(env))
	root.AddCommand(cli.ConfigCmd(env))

	return root
}

// exitCode maps an error to a process exit code. Order matters: a summary
// failure wraps the API error that caused it.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case isCobraUsageError(err):
		return ExitUsage
	case isAny(err, ffmpeg.ErrNotFound, media.ErrEngineUnavailable,
		cli.ErrAPIKeyMissing, cli.ErrInvalidProvider,
		transcribe.ErrAPIKeyMissing, transcribe.ErrUnknownProvider,
		summarize.ErrAPIKeyMissing):
		return ExitSetup
	case isAny(err, cli.ErrFileNotFound, cli.ErrUnsupportedFormat,
		export.ErrOutputExists, lang.ErrInvalid,
		config.ErrInvalidValue, config.ErrUnknownKey,
		summarize.ErrUnknownModel, media.ErrVideoConversion,
		transcribe.ErrEmptyAudio, session.ErrEmptyTranscript):
		return ExitValidation
	case isAny(err, cli.ErrSummaryFailed, summarize.ErrEmptyResponse):
		return ExitSummary
	case isAny(err, cli.ErrTranscriptionFailed,
		apierr.ErrRateLimit, apierr.ErrQuotaExceeded, apierr.ErrTimeout,
		apierr.ErrAuthFailed, apierr.ErrBadRequest):
		return ExitTranscription
	default:
		return ExitGeneral
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// cobraUsageErrorPatterns are message fragments of cobra flag and argument
// errors. Cobra has no typed errors for these.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
