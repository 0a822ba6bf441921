package audio

import (
	"context"
	"path/filepath"
	"time"

	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/logger"
)

// Prober reports the playable length of an encoded audio buffer.
// Implementations never fail: an undecodable buffer has length zero.
type Prober interface {
	Probe(ctx context.Context, data []byte, ext string) time.Duration
}

// Compile-time interface implementation check.
var _ Prober = (*FFmpegProber)(nil)

// FFmpegProber measures duration by decoding the buffer to a null sink.
// Decoding, rather than trusting container headers, gives correct lengths for
// byte slices cut from the middle of a stream.
type FFmpegProber struct {
	ffmpegPath string
	log        logger.Logger

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	writer  fileWriter
	remover fileRemover
}

// ProberOption configures an FFmpegProber.
type ProberOption func(*FFmpegProber)

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) ProberOption {
	return func(p *FFmpegProber) { p.cmd = r }
}

// WithTempDirCreator sets the temp directory creator (for testing).
func WithTempDirCreator(t tempDirCreator) ProberOption {
	return func(p *FFmpegProber) { p.tempDir = t }
}

// WithFileWriter sets the file writer (for testing).
func WithFileWriter(w fileWriter) ProberOption {
	return func(p *FFmpegProber) { p.writer = w }
}

// WithFileRemover sets the file remover (for testing).
func WithFileRemover(r fileRemover) ProberOption {
	return func(p *FFmpegProber) { p.remover = r }
}

// WithProberLogger sets the logger for degraded probes.
func WithProberLogger(l logger.Logger) ProberOption {
	return func(p *FFmpegProber) { p.log = l }
}

// NewFFmpegProber creates a prober. An empty ffmpegPath is accepted: every
// probe then reports zero and logs a warning.
func NewFFmpegProber(ffmpegPath string, opts ...ProberOption) *FFmpegProber {
	p := &FFmpegProber{
		ffmpegPath: ffmpegPath,
		log:        logger.Nop(),
		cmd:        osCommandRunner{},
		tempDir:    osTempDirCreator{},
		writer:     osFileWriter{},
		remover:    osFileRemover{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe decodes data and returns its length, or zero on any failure.
func (p *FFmpegProber) Probe(ctx context.Context, data []byte, ext string) time.Duration {
	if len(data) == 0 {
		return 0
	}
	if p.ffmpegPath == "" {
		p.log.Warn(ctx, "duration probe skipped: ffmpeg unavailable")
		return 0
	}

	dir, err := p.tempDir.MkdirTemp("", "chunkscribe-probe-*")
	if err != nil {
		p.log.Warn(ctx, "duration probe: create temp dir: %v", err)
		return 0
	}
	defer func() { _ = p.remover.RemoveAll(dir) }()

	path := filepath.Join(dir, "probe"+ext)
	if err := p.writer.WriteFile(path, data, 0600); err != nil {
		p.log.Warn(ctx, "duration probe: write temp file: %v", err)
		return 0
	}

	args := []string{"-hide_banner", "-nostdin", "-i", path, "-f", "null", "-"}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		p.log.Warn(ctx, "duration probe: decode failed (%d bytes): %v", len(data), err)
		return 0
	}

	d, err := ffmpeg.ParseDecodedDuration(string(output))
	if err != nil {
		p.log.Warn(ctx, "duration probe: %v", err)
		return 0
	}
	return d
}
