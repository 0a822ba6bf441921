package server

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
)

// ---------------------------------------------------------------------------
// Stateless proxies
// ---------------------------------------------------------------------------

// transcribe forwards one uploaded audio file to the transcriber.
func (s *Server) transcribe(c *fiber.Ctx) error {
	name, _, data, err := readUpload(c)
	if err != nil {
		return err
	}
	text, err := s.deps.Transcriber.Transcribe(c.UserContext(), data, name, s.transcribeOpt)
	if err != nil {
		s.log.Error(c.UserContext(), "transcribe %s: %v", name, err)
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"text": text})
}

type summarizeRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"modelName"`
}

// summarize forwards text to the summarizer. modelName defaults to
// summarize.DefaultModel.
func (s *Server) summarize(c *fiber.Ctx) error {
	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No text provided"})
	}
	model := req.ModelName
	if model == "" {
		model = summarize.DefaultModel
	}

	summary, err := s.deps.Summarizer.Summarize(c.UserContext(), req.Text, model)
	if err != nil {
		s.log.Error(c.UserContext(), "summarize with %s: %v", model, err)
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// checkModels lists provider models. ?filter=chat keeps flash and pro.
func (s *Server) checkModels(c *fiber.Ctx) error {
	if s.deps.Models == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No API Key found"})
	}
	models, err := s.deps.Models.List(c.UserContext())
	if err != nil {
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if c.Query("filter") == "chat" {
		models = summarize.FilterChatModels(models)
	}
	if models == nil {
		models = []summarize.ModelInfo{}
	}
	return c.JSON(fiber.Map{"count": len(models), "models": models})
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func (s *Server) getSession(c *fiber.Ctx) error {
	return c.JSON(s.sessionView())
}

func (s *Server) closeSession(c *fiber.Ctx) error {
	s.deps.Session.Close()
	return c.SendStatus(fiber.StatusNoContent)
}

// selectFile replaces the session file with the upload and processes it.
func (s *Server) selectFile(c *fiber.Ctx) error {
	name, contentType, data, err := readUpload(c)
	if err != nil {
		return err
	}
	f := media.NewFile(name, data)
	if strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/") {
		f.MIMEType = contentType
	}

	if err := s.deps.Session.SelectFile(c.UserContext(), f); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, media.ErrVideoConversion) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.sessionView())
}

type settingsRequest struct {
	ChunkSizeMB *string `json:"chunkSizeMB"`
	ModelName   *string `json:"modelName"`
}

// updateSettings confirms a chunk size entry and/or selects a model.
func (s *Server) updateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.ModelName != nil {
		if err := s.deps.Session.SetModel(*req.ModelName); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	if req.ChunkSizeMB != nil {
		if _, err := s.deps.Session.ConfirmChunkSize(c.UserContext(), *req.ChunkSizeMB); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}
	return c.JSON(s.sessionView())
}

type chunkTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) updateChunkText(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chunk id must be an integer")
	}
	var req chunkTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := s.deps.Session.UpdateChunkText(id, req.Text); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	v, _ := s.chunkView(id)
	return c.JSON(v)
}

// transcribeChunk transcribes one chunk and returns it. A failed chunk is
// returned with status error alongside the error message.
func (s *Server) transcribeChunk(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chunk id must be an integer")
	}
	err = s.deps.Session.TranscribeChunk(c.UserContext(), id)
	if errors.Is(err, session.ErrChunkNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	v, _ := s.chunkView(id)
	if err != nil {
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{"error": err.Error(), "chunk": v})
	}
	return c.JSON(fiber.Map{"chunk": v})
}

func (s *Server) transcribeAll(c *fiber.Ctx) error {
	report, err := s.deps.Session.TranscribeAll(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error(), "report": report})
	}
	return c.JSON(fiber.Map{"report": report, "session": s.sessionView()})
}

func (s *Server) summarizeSession(c *fiber.Ctx) error {
	summary, err := s.deps.Session.Summarize(c.UserContext())
	switch {
	case errors.Is(err, session.ErrEmptyTranscript):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No text provided"})
	case err != nil:
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{
			"error":   err.Error(),
			"summary": session.SummaryErrorPlaceholder,
		})
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// audio serves a chunk by playback handle. ?download=1 asks the browser to
// save it under its suggested file name.
func (s *Server) audio(c *fiber.Ctx) error {
	pb, err := s.deps.Session.Playback(c.Params("handle"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	disposition := "inline"
	if c.QueryBool("download") {
		disposition = "attachment"
	}
	c.Set(fiber.HeaderContentType, media.DetectMIME(pb.FileName, pb.Data))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, pb.FileName))
	return c.Send(pb.Data)
}

// readUpload reads the multipart "file" field.
func readUpload(c *fiber.Ctx) (name, contentType string, data []byte, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, "No file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer func() { _ = f.Close() }()

	data, err = io.ReadAll(f)
	if err != nil {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(data) == 0 {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, "Empty file")
	}
	return fh.Filename, fh.Header.Get(fiber.HeaderContentType), data, nil
}
