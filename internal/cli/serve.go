package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-chunkscribe/internal/server"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// shutdownTimeout bounds how long in-flight requests may run after an
// interrupt.
const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var (
		addr      string
		chunkSize string
		model     string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Serve the session API on a local address.

Routes:
  POST   /api/transcribe                  transcribe one uploaded file
  POST   /api/summarize                   summarize {text, modelName}
  GET    /api/check-models                list provider models (?filter=chat)
  GET    /api/session                     current session state
  POST   /api/session/file                select a file (multipart "file")
  PUT    /api/session/settings            {chunkSizeMB, modelName}
  PUT    /api/session/chunks/:id/text     edit a chunk transcript
  POST   /api/session/chunks/:id/transcribe
  POST   /api/session/transcribe-all
  POST   /api/session/summarize
  DELETE /api/session                     release the file and chunks
  GET    /api/audio/:handle               chunk playback (?download=1)
  GET    /ws/events                       session events (websocket)`,
		Example: `  chunkscribe serve
  chunkscribe serve --addr 127.0.0.1:8080 --chunk-size 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, addr, chunkSize, model, language)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Initial chunk size in megabytes")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Initial summarization model")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code)")

	return cmd
}

// runServe listens until the command context ends, then shuts down
// gracefully. An interrupt is a normal stop.
func runServe(cmd *cobra.Command, env *Env, addr, chunkSize, model, language string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cfg, chunkSize, model, "", "", language); err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ListenAddr
	}

	st, err := buildStages(ctx, env, cfg, needs{transcriber: true, summarizer: true})
	if err != nil {
		return err
	}

	// Model listing is Gemini only; without a key the route reports it.
	var lister server.ModelLister
	if key, err := apiKey(env.Getenv, ProviderGemini); err == nil {
		if lister, err = env.SummarizerFactory.NewModelLister(ctx, key); err != nil {
			st.log.Warn(ctx, "model listing disabled: %v", err)
			lister = nil
		}
	}

	s := st.newSession()
	defer s.Close()

	srv := server.New(server.Deps{
		Session:     s,
		Transcriber: st.transcriber,
		Summarizer:  st.summarizer,
		Models:      lister,
	},
		server.WithLogger(st.log),
		server.WithMaxUploadMB(cfg.MaxUploadMB),
		server.WithTranscribeOptions(transcribe.Options{Language: cfg.Language}),
	)

	_, _ = fmt.Fprintf(env.Stderr, "Listening on http://%s (Ctrl+C to stop)\n", addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	_, _ = fmt.Fprintln(env.Stderr, "Stopped")
	return nil
}
