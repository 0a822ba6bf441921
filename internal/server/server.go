// Package server exposes the pipeline over a local HTTP API with a
// websocket stream of session events.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/logger"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// ModelLister lists provider models. *summarize.ModelLister implements it.
type ModelLister interface {
	List(ctx context.Context) ([]summarize.ModelInfo, error)
}

var _ ModelLister = (*summarize.ModelLister)(nil)

// Deps are the collaborators behind the routes. Models may be nil when no
// Gemini key is configured.
type Deps struct {
	Session     *session.Session
	Transcriber transcribe.Transcriber
	Summarizer  summarize.Summarizer
	Models      ModelLister
}

const defaultMaxUploadMB = 500

// Server is the HTTP front end of one session.
type Server struct {
	app           *fiber.App
	deps          Deps
	log           logger.Logger
	maxUploadMB   int
	transcribeOpt transcribe.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxUploadMB bounds request bodies.
func WithMaxUploadMB(mb int) Option {
	return func(s *Server) {
		if mb > 0 {
			s.maxUploadMB = mb
		}
	}
}

// WithTranscribeOptions sets the options used by the stateless transcribe route.
func WithTranscribeOptions(o transcribe.Options) Option {
	return func(s *Server) { s.transcribeOpt = o }
}

// New builds the app and registers every route.
func New(deps Deps, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		log:         logger.Nop(),
		maxUploadMB: defaultMaxUploadMB,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "chunkscribe",
		BodyLimit:             s.maxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Post("/transcribe", s.transcribe)
	api.Post("/summarize", s.summarize)
	api.Get("/check-models", s.checkModels)

	sess := api.Group("/session")
	sess.Get("/", s.getSession)
	sess.Delete("/", s.closeSession)
	sess.Post("/file", s.selectFile)
	sess.Put("/settings", s.updateSettings)
	sess.Put("/chunks/:id/text", s.updateChunkText)
	sess.Post("/chunks/:id/transcribe", s.transcribeChunk)
	sess.Post("/transcribe-all", s.transcribeAll)
	sess.Post("/summarize", s.summarizeSession)

	api.Get("/audio/:handle", s.audio)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/events", websocket.New(s.events))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info(context.Background(), "listening on http://%s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug(c.UserContext(), "%s %s -> %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start).Round(time.Millisecond))
	return err
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// upstreamStatus maps a collaborator error to a response status.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, apierr.ErrRateLimit), errors.Is(err, apierr.ErrQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, apierr.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, apierr.ErrBadRequest):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
