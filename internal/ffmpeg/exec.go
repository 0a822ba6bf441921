package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// ---------------------------------------------------------------------------
// Executor - testable FFmpeg execution with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn runs a command and returns its stderr.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// runFn runs a command, streaming stdout to w, and returns its stderr.
type runFn func(ctx context.Context, path string, args []string, stdout io.Writer) (string, error)

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	runOutput runOutputFn
	run       runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// WithRun sets a custom streaming run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
		run:       defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and captures its stderr output.
// FFmpeg writes probe info and decode statistics to stderr.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// Run executes FFmpeg with stdout streamed to w (typically a -progress pipe
// consumer) and returns the captured stderr.
func (e *Executor) Run(ctx context.Context, ffmpegPath string, args []string, w io.Writer) (string, error) {
	return e.run(ctx, ffmpegPath, args, w)
}

// defaultRunOutput returns stderr even when the command fails, since FFmpeg
// exits non-zero for valid probe invocations (no output file given).
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- ffmpegPath comes from Resolver, args are built internally
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

func defaultRun(ctx context.Context, ffmpegPath string, args []string, w io.Writer) (string, error) {
	// #nosec G204 -- ffmpegPath comes from Resolver, args are built internally
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
