package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/logger"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// stages are the long-lived collaborators shared by every session a
// command creates.
type stages struct {
	normalizer  session.Normalizer
	prober      audio.Prober
	transcriber transcribe.Transcriber
	summarizer  summarize.Summarizer
	cfg         config.Config
	log         logger.Logger
}

// needs selects which API-backed stages a command builds.
type needs struct {
	transcriber bool
	summarizer  bool
}

// loadConfig loads and validates configuration. A broken config file is
// reported and defaults are used instead.
func loadConfig(env *Env) (config.Config, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildStages resolves FFmpeg and creates the requested collaborators.
// A missing FFmpeg is not fatal: audio is then used as is and video fails
// at conversion time.
func buildStages(ctx context.Context, env *Env, cfg config.Config, n needs) (*stages, error) {
	st := &stages{cfg: cfg, log: logger.New(env.Stderr, cfg.LogLevel)}

	// API keys first so a missing key fails before any work.
	var transcriberKey, summarizerKey string
	var err error
	if n.transcriber {
		if transcriberKey, err = apiKey(env.Getenv, cfg.Transcriber); err != nil {
			return nil, err
		}
	}
	if n.summarizer {
		if summarizerKey, err = apiKey(env.Getenv, cfg.Provider); err != nil {
			return nil, err
		}
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	switch {
	case errors.Is(err, ffmpeg.ErrNotFound):
		_, _ = fmt.Fprintf(env.Stderr, "Warning: %v\nAudio is used as is; video cannot be converted.\n", err)
		ffmpegPath = ""
	case err != nil:
		return nil, err
	default:
		env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)
	}
	st.normalizer = env.MediaFactory.NewNormalizer(ffmpegPath, st.log)
	st.prober = env.MediaFactory.NewProber(ffmpegPath, st.log)

	if n.transcriber {
		if st.transcriber, err = env.TranscriberFactory.NewTranscriber(cfg.Transcriber, transcriberKey); err != nil {
			return nil, err
		}
	}
	if n.summarizer {
		st.summarizer, err = env.SummarizerFactory.NewSummarizer(ctx, cfg.Provider, summarizerKey,
			summarize.WithLanguage(cfg.Language), summarize.WithLogger(st.log))
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// newSession creates a session over the shared stages with its own
// playback handles.
func (st *stages) newSession() *session.Session {
	handles := audio.NewHandleRegistry()
	return session.New(session.Deps{
		Normalizer:  st.normalizer,
		Partitioner: audio.NewPartitioner(st.prober, handles, audio.WithPartitionerLogger(st.log)),
		Handles:     handles,
		Transcriber: st.transcriber,
		Summarizer:  st.summarizer,
	},
		session.WithLogger(st.log),
		session.WithChunkSize(st.cfg.ChunkSizeMB),
		session.WithMinChunkSize(st.cfg.MinChunkSizeMB),
		session.WithModel(st.cfg.Model),
		session.WithSettleDelay(0),
		session.WithTranscribeOptions(transcribe.Options{Language: st.cfg.Language}),
	)
}

// checkMedia verifies that inputPath is an existing audio or video file.
func checkMedia(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", inputPath, ErrUnsupportedFormat)
	}
	if !media.IsMediaName(inputPath) {
		return fmt.Errorf("%s is not an audio or video file: %w", inputPath, ErrUnsupportedFormat)
	}
	return nil
}

// readMedia checks inputPath and loads it.
func readMedia(inputPath string) (media.File, error) {
	if err := checkMedia(inputPath); err != nil {
		return media.File{}, err
	}
	// #nosec G304 -- inputPath is user-provided, validated above
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return media.File{}, fmt.Errorf("failed to read file: %w", err)
	}
	return media.NewFile(inputPath, data), nil
}

// processOptions controls one run of the whole pipeline.
type processOptions struct {
	output    string
	summarize bool
}

// processFile runs convert, chunk, transcribe, summarize and write for one
// file in a fresh session. The document is written even when the summary
// fails; the error is then ErrSummaryFailed.
func processFile(ctx context.Context, env *Env, st *stages, inputPath string, opts processOptions) error {
	f, err := readMedia(inputPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(opts.output); err == nil {
		return fmt.Errorf("%s: %w", opts.output, export.ErrOutputExists)
	}

	s := st.newSession()
	defer s.Close()
	events, cancel := s.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		newProgressPrinter(env.Stderr).follow(events)
	}()
	defer func() {
		cancel()
		<-printed
	}()

	if err := s.SelectFile(ctx, f); err != nil {
		return err
	}
	st.log.Info(ctx, "%s: %d chunks", f.Name, len(s.Snapshot().Chunks))

	report, err := s.TranscribeAll(ctx)
	if err != nil {
		return err
	}
	if report.Visited > 0 && report.Succeeded == 0 {
		first := report.Errors[report.Failed[0]]
		return fmt.Errorf("%w: all %d chunks failed: %w", ErrTranscriptionFailed, report.Visited, first)
	}
	if n := len(report.Failed); n > 0 {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: %d of %d chunks failed to transcribe\n", n, report.Visited)
	}

	var summaryErr error
	if opts.summarize {
		_, _ = fmt.Fprintln(env.Stderr, "Summarizing...")
		if _, err := s.Summarize(ctx); err != nil && !errors.Is(err, session.ErrEmptyTranscript) {
			summaryErr = fmt.Errorf("%w: %w", ErrSummaryFailed, err)
		}
	}

	state := s.Snapshot()
	summary := state.Summary
	if summaryErr != nil {
		summary = ""
	}
	doc := export.NewDocument(inputPath, state.Chunks, summary, state.Model, env.Now())
	if strings.TrimSpace(state.Transcript()) == "" && summary == "" {
		_, _ = fmt.Fprintln(env.Stderr, "Warning: transcript is empty")
	}
	if err := export.Write(opts.output, doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Done: %s\n", opts.output)
	return summaryErr
}

// applyOverrides copies non-empty flag values over cfg and validates the
// result.
func applyOverrides(cfg *config.Config, chunkSize, model, provider, transcriber, language string) error {
	if chunkSize != "" {
		if err := cfg.Set(config.KeyChunkSize, chunkSize); err != nil {
			return err
		}
		cfg.ChunkSizeMB = max(cfg.ChunkSizeMB, cfg.MinChunkSizeMB)
	}
	if model != "" {
		cfg.Model = model
	}
	if provider != "" {
		p, err := ParseProvider(RoleSummarizer, provider)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	if transcriber != "" {
		p, err := ParseProvider(RoleTranscriber, transcriber)
		if err != nil {
			return err
		}
		cfg.Transcriber = p
	}
	if language != "" {
		if err := lang.Validate(language); err != nil {
			return err
		}
		cfg.Language = language
	}
	if err := summarize.ValidateModel(cfg.Model); err != nil {
		return err
	}
	return cfg.Validate()
}
