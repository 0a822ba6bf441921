package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/logger"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/server"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	MediaFactory       MediaFactory
	TranscriberFactory TranscriberFactory
	SummarizerFactory  SummarizerFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// MediaFactory builds the FFmpeg-backed pipeline stages. An empty
// ffmpegPath means FFmpeg is unavailable.
type MediaFactory interface {
	NewNormalizer(ffmpegPath string, log logger.Logger) session.Normalizer
	NewProber(ffmpegPath string, log logger.Logger) audio.Prober
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(provider, apiKey string) (transcribe.Transcriber, error)
}

// SummarizerFactory creates summarizers and model listers.
type SummarizerFactory interface {
	NewSummarizer(ctx context.Context, provider, apiKey string, opts ...summarize.Option) (summarize.Summarizer, error)
	NewModelLister(ctx context.Context, apiKey string) (server.ModelLister, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithMediaFactory sets the media factory.
func WithMediaFactory(f MediaFactory) EnvOption {
	return func(e *Env) { e.MediaFactory = f }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithSummarizerFactory sets the summarizer factory.
func WithSummarizerFactory(f SummarizerFactory) EnvOption {
	return func(e *Env) { e.SummarizerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		MediaFactory:       &defaultMediaFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		SummarizerFactory:  &defaultSummarizerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.NewResolver().Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.NewVersionChecker().Check(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultMediaFactory struct{}

func (defaultMediaFactory) NewNormalizer(ffmpegPath string, log logger.Logger) session.Normalizer {
	engine, err := ffmpeg.NewEngine(ffmpegPath)
	if err != nil {
		return media.NewNormalizer(nil, media.WithLogger(log))
	}
	return media.NewNormalizer(engine, media.WithLogger(log))
}

func (defaultMediaFactory) NewProber(ffmpegPath string, log logger.Logger) audio.Prober {
	return audio.NewFFmpegProber(ffmpegPath, audio.WithProberLogger(log))
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(provider, apiKey string) (transcribe.Transcriber, error) {
	t, err := transcribe.New(provider, apiKey)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type defaultSummarizerFactory struct{}

// NewSummarizer wraps the provider client so transcripts larger than its
// context window are summarized in parts.
func (defaultSummarizerFactory) NewSummarizer(ctx context.Context, provider, apiKey string, opts ...summarize.Option) (summarize.Summarizer, error) {
	if provider == ProviderOpenAI {
		s, err := summarize.NewOpenAI(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return summarize.NewLong(s, append(opts, summarize.WithPartTokens(summarize.OpenAIPartTokens))...), nil
	}
	s, err := summarize.NewGemini(ctx, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return summarize.NewLong(s, append(opts, summarize.WithPartTokens(summarize.GeminiPartTokens))...), nil
}

func (defaultSummarizerFactory) NewModelLister(ctx context.Context, apiKey string) (server.ModelLister, error) {
	l, err := summarize.NewModelLister(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ MediaFactory       = (*defaultMediaFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ SummarizerFactory  = (*defaultSummarizerFactory)(nil)
)
