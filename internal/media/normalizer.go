package media

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/id3"
	"github.com/alnah/go-chunkscribe/internal/logger"
)

// Engine transcodes in-memory media. *ffmpeg.Engine implements it.
type Engine interface {
	Run(ctx context.Context, job ffmpeg.Job, progress ffmpeg.ProgressFunc) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Engine = (*ffmpeg.Engine)(nil)

// Outcome tells how a Result stream was produced.
type Outcome string

// Normalization outcomes.
const (
	// OutcomeNormalized means the engine produced the stream.
	OutcomeNormalized Outcome = "normalized"
	// OutcomeFallback means the engine failed and the original bytes are used.
	OutcomeFallback Outcome = "fallback"
	// OutcomePassthrough means the file was not a media type the engine handles.
	OutcomePassthrough Outcome = "passthrough"
)

// Result is the audio stream to partition and how it was obtained.
// Reason is set for OutcomeFallback.
type Result struct {
	Stream  audio.Stream
	Outcome Outcome
	Reason  error
}

// mp3Ext is the extension of every re-encoded video soundtrack.
const mp3Ext = ".mp3"

// defaultQuality is the libmp3lame VBR quality (0 best, 9 smallest).
const defaultQuality = 2

// Normalizer turns a user-selected file into a clean audio stream.
//
// Video is re-encoded to MP3 with metadata and the Xing/LAME frame suppressed.
// Audio is remuxed without re-encoding. The output carries no ID3v2 tag.
type Normalizer struct {
	engine  Engine
	log     logger.Logger
	quality int
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLogger sets the logger for degraded paths.
func WithLogger(l logger.Logger) NormalizerOption {
	return func(n *Normalizer) { n.log = l }
}

// WithQuality sets the libmp3lame VBR quality used for video soundtracks.
func WithQuality(q int) NormalizerOption {
	return func(n *Normalizer) { n.quality = q }
}

// NewNormalizer creates a Normalizer. engine may be nil when FFmpeg is
// unavailable: audio then falls back to the original bytes and video fails.
func NewNormalizer(engine Engine, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		engine:  engine,
		log:     logger.Nop(),
		quality: defaultQuality,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts f to an audio stream. progress receives engine progress
// as a fraction and may be nil.
//
// The only error is ErrVideoConversion. Audio failures degrade to
// OutcomeFallback with the untouched input.
func (n *Normalizer) Normalize(ctx context.Context, f File, progress ffmpeg.ProgressFunc) (Result, error) {
	switch f.Category() {
	case CategoryVideo:
		data, err := n.transcode(ctx, f, mp3Ext, n.videoArgs(), progress)
		if err != nil {
			n.log.Error(ctx, "convert video %s: %v", f.Name, err)
			return Result{}, fmt.Errorf("%w: %s: %w", ErrVideoConversion, f.Name, err)
		}
		return Result{Stream: audio.Stream{Data: data, Ext: mp3Ext}, Outcome: OutcomeNormalized}, nil

	case CategoryAudio:
		ext := f.Ext()
		data, err := n.transcode(ctx, f, ext, audioCopyArgs(ext), progress)
		if err != nil {
			n.log.Warn(ctx, "normalize audio %s failed, using original bytes: %v", f.Name, err)
			return Result{
				Stream:  audio.Stream{Data: f.Data, Ext: ext},
				Outcome: OutcomeFallback,
				Reason:  err,
			}, nil
		}
		return Result{Stream: audio.Stream{Data: data, Ext: ext}, Outcome: OutcomeNormalized}, nil

	default:
		n.log.Debug(ctx, "%s is %q, passing through", f.Name, f.MIMEType)
		return Result{
			Stream:  audio.Stream{Data: id3.Strip(f.Data), Ext: f.Ext()},
			Outcome: OutcomePassthrough,
		}, nil
	}
}

func (n *Normalizer) transcode(ctx context.Context, f File, outExt string, args []string, progress ffmpeg.ProgressFunc) ([]byte, error) {
	if n.engine == nil {
		return nil, ErrEngineUnavailable
	}
	out, err := n.engine.Run(ctx, ffmpeg.Job{
		Input:     f.Data,
		InputExt:  f.Ext(),
		OutputExt: outExt,
		Args:      args,
	}, progress)
	if err != nil {
		return nil, err
	}
	out = id3.Strip(out)
	if len(out) == 0 {
		return nil, errors.New("engine output empty after tag strip")
	}
	return out, nil
}

// videoArgs extracts the first audio track and re-encodes it to tagless MP3.
func (n *Normalizer) videoArgs() []string {
	return []string{
		"-vn", "-map", "0:a:0",
		"-c:a", "libmp3lame", "-q:a", strconv.Itoa(n.quality),
		"-write_xing", "0", "-id3v2_version", "0",
		"-map_metadata", "-1",
		"-f", "mp3",
	}
}

// audioCopyArgs remuxes the first audio track without re-encoding.
// MP3-only muxer flags are added when the container is MP3.
func audioCopyArgs(ext string) []string {
	args := []string{
		"-vn", "-map", "0:a:0",
		"-c:a", "copy",
		"-map_metadata", "-1",
	}
	if ext == mp3Ext {
		args = append(args, "-write_xing", "0", "-id3v2_version", "0", "-f", "mp3")
	}
	return args
}
