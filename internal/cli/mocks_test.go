package cli

import (
	"context"
	"sync"
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

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context) (string, error)

	mu            sync.Mutex
	resolveCalls  int
	versionChecks int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(context.Context, string) {
	m.mu.Lock()
	m.versionChecks++
	m.mu.Unlock()
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

func (m *mockFFmpegResolver) VersionChecks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versionChecks
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock MediaFactory - passthrough normalizer, one second per megabyte
// ---------------------------------------------------------------------------

type mockMediaFactory struct {
	NormalizeErr error

	mu          sync.Mutex
	ffmpegPaths []string
}

func (m *mockMediaFactory) NewNormalizer(ffmpegPath string, _ logger.Logger) session.Normalizer {
	m.mu.Lock()
	m.ffmpegPaths = append(m.ffmpegPaths, ffmpegPath)
	m.mu.Unlock()
	return mockNormalizer{err: m.NormalizeErr}
}

func (m *mockMediaFactory) NewProber(string, logger.Logger) audio.Prober {
	return secondsPerMB{}
}

func (m *mockMediaFactory) FFmpegPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ffmpegPaths...)
}

type mockNormalizer struct {
	err error
}

func (n mockNormalizer) Normalize(_ context.Context, f media.File, progress ffmpeg.ProgressFunc) (media.Result, error) {
	if n.err != nil {
		return media.Result{}, n.err
	}
	if progress != nil {
		progress(1)
	}
	return media.Result{Stream: audio.Stream{Data: f.Data, Ext: ".mp3"}, Outcome: media.OutcomeNormalized}, nil
}

type secondsPerMB struct{}

func (secondsPerMB) Probe(_ context.Context, data []byte, _ string) time.Duration {
	return time.Duration(len(data)) * time.Second / (1024 * 1024)
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	NewTranscriberFunc func(provider, apiKey string) (transcribe.Transcriber, error)

	mu    sync.Mutex
	calls []string // provider:apiKey
	mock  *mockTranscriber
}

func (m *mockTranscriberFactory) NewTranscriber(provider, apiKey string) (transcribe.Transcriber, error) {
	m.mu.Lock()
	m.calls = append(m.calls, provider+":"+apiKey)
	if m.mock == nil {
		m.mock = &mockTranscriber{}
	}
	t := m.mock
	m.mu.Unlock()

	if m.NewTranscriberFunc != nil {
		return m.NewTranscriberFunc(provider, apiKey)
	}
	return t, nil
}

func (m *mockTranscriberFactory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, fileName string, opts transcribe.Options) (string, error)

	mu        sync.Mutex
	fileNames []string
	opts      []transcribe.Options
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, fileName string, opts transcribe.Options) (string, error) {
	m.mu.Lock()
	m.fileNames = append(m.fileNames, fileName)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, fileName, opts)
	}
	return "spoken words", nil
}

func (m *mockTranscriber) FileNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fileNames...)
}

// ---------------------------------------------------------------------------
// Mock SummarizerFactory + Summarizer + ModelLister
// ---------------------------------------------------------------------------

type mockSummarizerFactory struct {
	NewSummarizerErr error
	Summarizer       *mockSummarizer
	Lister           *mockLister

	mu        sync.Mutex
	providers []string
}

func (m *mockSummarizerFactory) NewSummarizer(_ context.Context, provider, _ string, _ ...summarize.Option) (summarize.Summarizer, error) {
	m.mu.Lock()
	m.providers = append(m.providers, provider)
	m.mu.Unlock()

	if m.NewSummarizerErr != nil {
		return nil, m.NewSummarizerErr
	}
	if m.Summarizer == nil {
		return &mockSummarizer{}, nil
	}
	return m.Summarizer, nil
}

func (m *mockSummarizerFactory) NewModelLister(context.Context, string) (server.ModelLister, error) {
	if m.Lister == nil {
		return &mockLister{}, nil
	}
	return m.Lister, nil
}

func (m *mockSummarizerFactory) Providers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.providers...)
}

type mockSummarizer struct {
	Err error

	mu     sync.Mutex
	models []string
	texts  []string
}

func (m *mockSummarizer) Summarize(_ context.Context, text, model string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, model)
	m.texts = append(m.texts, text)
	if m.Err != nil {
		return "", m.Err
	}
	return "- the gist", nil
}

type mockLister struct {
	Models []summarize.ModelInfo
	Err    error
}

func (m *mockLister) List(context.Context) ([]summarize.ModelInfo, error) {
	return m.Models, m.Err
}

// Compile-time interface verification.
var (
	_ FFmpegResolver         = (*mockFFmpegResolver)(nil)
	_ ConfigLoader           = (*mockConfigLoader)(nil)
	_ MediaFactory           = (*mockMediaFactory)(nil)
	_ TranscriberFactory     = (*mockTranscriberFactory)(nil)
	_ SummarizerFactory      = (*mockSummarizerFactory)(nil)
	_ transcribe.Transcriber = (*mockTranscriber)(nil)
	_ summarize.Summarizer   = (*mockSummarizer)(nil)
	_ server.ModelLister     = (*mockLister)(nil)
)
