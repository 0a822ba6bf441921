package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProgressFunc receives job progress as a fraction in [0, 1].
// Values never decrease within one job.
type ProgressFunc func(fraction float64)

// Job describes one in-memory transcode.
type Job struct {
	Input     []byte   // Encoded source bytes.
	InputExt  string   // Source extension including the dot, e.g. ".mp4".
	OutputExt string   // Target extension including the dot, e.g. ".mp3".
	Args      []string // Codec and muxer arguments placed between input and output.
}

// tempPattern names the per-job scratch directory.
const tempPattern = "chunkscribe-*"

// stderrTailLines bounds how much FFmpeg output is kept in error messages.
const stderrTailLines = 8

// Engine runs transcodes against byte buffers. Each job gets a private
// scratch directory that is removed whatever the outcome.
type Engine struct {
	ffmpegPath string
	executor   *Executor
	fs         workspace
	tempDir    string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineExecutor sets the executor used to run FFmpeg.
func WithEngineExecutor(e *Executor) EngineOption {
	return func(en *Engine) { en.executor = e }
}

// WithWorkspace sets the scratch filesystem implementation.
func WithWorkspace(w workspace) EngineOption {
	return func(en *Engine) { en.fs = w }
}

// WithTempDir sets the parent directory for scratch directories.
// Empty means os.TempDir.
func WithTempDir(dir string) EngineOption {
	return func(en *Engine) { en.tempDir = dir }
}

// NewEngine creates an Engine for the given binary.
// Returns ErrNotFound if ffmpegPath is empty.
func NewEngine(ffmpegPath string, opts ...EngineOption) (*Engine, error) {
	if ffmpegPath == "" {
		return nil, ErrNotFound
	}
	e := &Engine{
		ffmpegPath: ffmpegPath,
		executor:   NewExecutor(),
		fs:         osWorkspace{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Path returns the FFmpeg binary the engine runs.
func (e *Engine) Path() string {
	return e.ffmpegPath
}

// Run transcodes job.Input and returns the encoded output.
// progress may be nil.
func (e *Engine) Run(ctx context.Context, job Job, progress ProgressFunc) ([]byte, error) {
	dir, err := e.fs.MkdirTemp(e.tempDir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = e.fs.RemoveAll(dir) }()

	in := filepath.Join(dir, "input"+job.InputExt)
	out := filepath.Join(dir, "output"+job.OutputExt)
	if err := e.fs.WriteFile(in, job.Input, 0600); err != nil {
		return nil, fmt.Errorf("write job input: %w", err)
	}

	tracker := newProgressTracker(e.probeTotal(ctx, in), progress)
	tracker.emit(0)

	args := make([]string, 0, len(job.Args)+10)
	args = append(args, "-hide_banner", "-nostdin", "-y", "-i", in)
	args = append(args, job.Args...)
	args = append(args, "-progress", "pipe:1", "-nostats", out)

	stderr, err := e.executor.Run(ctx, e.ffmpegPath, args, tracker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v\n%s", ErrEngineFailed, err, lastLines(stderr, stderrTailLines))
	}

	data, err := e.fs.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrEngineFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrEngineFailed)
	}

	tracker.emit(1)
	return data, nil
}

// probeTotal reads the container duration used to scale progress.
// Zero means unknown; progress then jumps from 0 to 1.
func (e *Engine) probeTotal(ctx context.Context, path string) time.Duration {
	output, _ := e.executor.RunOutput(ctx, e.ffmpegPath, []string{"-hide_banner", "-i", path})
	d, err := ParseDuration(output)
	if err != nil {
		return 0
	}
	return d
}

// ---------------------------------------------------------------------------
// progressTracker - consumes "-progress pipe:1" key=value lines
// ---------------------------------------------------------------------------

type progressTracker struct {
	total time.Duration
	fn    ProgressFunc
	buf   []byte
	last  float64
}

func newProgressTracker(total time.Duration, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn, last: -1}
}

// Write implements io.Writer. exec.Cmd calls it from a single goroutine.
func (p *progressTracker) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(p.buf[:i]))
		p.buf = p.buf[i+1:]
		p.handle(line)
	}
	return len(b), nil
}

func (p *progressTracker) handle(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	// out_time_ms is in microseconds too (long-standing FFmpeg quirk).
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 || p.total <= 0 {
			return
		}
		p.emit(float64(time.Duration(us)*time.Microsecond) / float64(p.total))
	case "progress":
		if value == "end" {
			p.emit(1)
		}
	}
}

func (p *progressTracker) emit(f float64) {
	if p.fn == nil {
		return
	}
	f = min(max(f, 0), 1)
	if f <= p.last {
		return
	}
	p.last = f
	p.fn(f)
}
