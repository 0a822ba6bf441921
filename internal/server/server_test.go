package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/server"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

const mb = 1024 * 1024

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type passNormalizer struct {
	err error
}

func (p passNormalizer) Normalize(_ context.Context, f media.File, _ ffmpeg.ProgressFunc) (media.Result, error) {
	if p.err != nil {
		return media.Result{}, p.err
	}
	return media.Result{Stream: audio.Stream{Data: f.Data, Ext: ".mp3"}, Outcome: media.OutcomeNormalized}, nil
}

type secondsPerMB struct{}

func (secondsPerMB) Probe(_ context.Context, data []byte, _ string) time.Duration {
	return time.Duration(len(data)) * time.Second / mb
}

type mockTranscriber struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, fileName string, _ transcribe.Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, fileName)
	if m.err != nil {
		return "", m.err
	}
	return "hello", nil
}

type mockSummarizer struct {
	mu     sync.Mutex
	models []string
	err    error
}

func (m *mockSummarizer) Summarize(_ context.Context, _, model string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, model)
	if m.err != nil {
		return "", m.err
	}
	return "- point", nil
}

type mockLister struct {
	models []summarize.ModelInfo
	err    error
}

func (m mockLister) List(context.Context) ([]summarize.ModelInfo, error) {
	return m.models, m.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	srv         *server.Server
	session     *session.Session
	transcriber *mockTranscriber
	summarizer  *mockSummarizer
}

func newFixture(t *testing.T, lister server.ModelLister, normErr error) *fixture {
	t.Helper()
	handles := audio.NewHandleRegistry()
	f := &fixture{transcriber: &mockTranscriber{}, summarizer: &mockSummarizer{}}
	f.session = session.New(session.Deps{
		Normalizer:  passNormalizer{err: normErr},
		Partitioner: audio.NewPartitioner(secondsPerMB{}, handles),
		Handles:     handles,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
	}, session.WithSettleDelay(0))
	t.Cleanup(f.session.Close)

	f.srv = server.New(server.Deps{
		Session:     f.session,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
		Models:      lister,
	})
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := f.srv.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("App().Test(%s %s): %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode, out
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, target, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + name + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func selectAudio(t *testing.T, f *fixture, sizeMB int) map[string]any {
	t.Helper()
	code, body := f.do(t, uploadRequest(t, "/api/session/file", "talk.mp3", "audio/mpeg", bytes.Repeat([]byte{0xff}, sizeMB*mb)))
	if code != http.StatusOK {
		t.Fatalf("select file status = %d, body %v", code, body)
	}
	return body
}

// ---------------------------------------------------------------------------
// Stateless routes
// ---------------------------------------------------------------------------

func TestTranscribe(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	code, body := f.do(t, uploadRequest(t, "/api/transcribe", "part.mp3", "audio/mpeg", []byte{1, 2, 3}))
	if code != http.StatusOK || body["text"] != "hello" {
		t.Errorf("POST /api/transcribe = %d %v, want 200 text=hello", code, body)
	}
	if len(f.transcriber.names) != 1 || f.transcriber.names[0] != "part.mp3" {
		t.Errorf("transcriber saw %v, want [part.mp3]", f.transcriber.names)
	}
}

func TestTranscribe_NoFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	code, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/transcribe", nil))
	if code != http.StatusBadRequest || body["error"] == nil {
		t.Errorf("POST /api/transcribe without file = %d %v, want 400 with error", code, body)
	}
}

func TestTranscribe_UpstreamStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "rate limit", err: apierr.ErrRateLimit, want: http.StatusTooManyRequests},
		{name: "timeout", err: apierr.ErrTimeout, want: http.StatusGatewayTimeout},
		{name: "bad request", err: apierr.ErrBadRequest, want: http.StatusBadRequest},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil, nil)
			f.transcriber.err = tt.err
			code, _ := f.do(t, uploadRequest(t, "/api/transcribe", "a.mp3", "audio/mpeg", []byte{1}))
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      map[string]string
		wantCode  int
		wantModel string
	}{
		{name: "default model", body: map[string]string{"text": "hi"}, wantCode: http.StatusOK, wantModel: summarize.DefaultModel},
		{name: "explicit model", body: map[string]string{"text": "hi", "modelName": "gemini-2.5-pro"}, wantCode: http.StatusOK, wantModel: "gemini-2.5-pro"},
		{name: "empty text", body: map[string]string{"text": "  "}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil, nil)
			code, body := f.do(t, jsonRequest(http.MethodPost, "/api/summarize", tt.body))
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%v)", code, tt.wantCode, body)
			}
			if tt.wantCode != http.StatusOK {
				if body["error"] != "No text provided" {
					t.Errorf("error = %v, want %q", body["error"], "No text provided")
				}
				if len(f.summarizer.models) != 0 {
					t.Errorf("summarizer called %d times, want 0", len(f.summarizer.models))
				}
				return
			}
			if body["summary"] != "- point" {
				t.Errorf("summary = %v, want %q", body["summary"], "- point")
			}
			if f.summarizer.models[0] != tt.wantModel {
				t.Errorf("model = %q, want %q", f.summarizer.models[0], tt.wantModel)
			}
		})
	}
}

func TestCheckModels(t *testing.T) {
	t.Parallel()

	models := []summarize.ModelInfo{
		{Name: "models/gemini-2.5-flash"},
		{Name: "models/text-embedding-004"},
		{Name: "models/gemini-2.5-pro"},
	}

	t.Run("no key", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/check-models", nil))
		if code != http.StatusInternalServerError || body["error"] != "No API Key found" {
			t.Errorf("GET /api/check-models = %d %v, want 500 No API Key found", code, body)
		}
	})

	t.Run("all models", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, mockLister{models: models}, nil)
		code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/check-models", nil))
		if code != http.StatusOK || body["count"] != float64(3) {
			t.Errorf("GET /api/check-models = %d %v, want 200 count=3", code, body)
		}
	})

	t.Run("chat filter", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, mockLister{models: models}, nil)
		code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/check-models?filter=chat", nil))
		if code != http.StatusOK || body["count"] != float64(2) {
			t.Errorf("GET /api/check-models?filter=chat = %d %v, want 200 count=2", code, body)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, mockLister{err: apierr.ErrAuthFailed}, nil)
		code, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/check-models", nil))
		if code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", code)
		}
	})
}

// ---------------------------------------------------------------------------
// Session routes
// ---------------------------------------------------------------------------

func TestSession_SelectFileAndChunks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	body := selectAudio(t, f, 25)

	chunks, _ := body["chunks"].([]any)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3 (10+10+5 MB)", len(chunks))
	}
	first := chunks[0].(map[string]any)
	if first["status"] != string(audio.StatusIdle) {
		t.Errorf("first chunk status = %v, want idle", first["status"])
	}
	if !strings.HasPrefix(first["audioUrl"].(string), "/api/audio/") {
		t.Errorf("audioUrl = %v, want /api/audio/ prefix", first["audioUrl"])
	}

	code, state := f.do(t, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if code != http.StatusOK || state["phase"] != string(session.PhaseIdle) {
		t.Errorf("GET /api/session = %d phase %v, want 200 idle", code, state["phase"])
	}
}

func TestSession_VideoConversionFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, media.ErrVideoConversion)
	code, body := f.do(t, uploadRequest(t, "/api/session/file", "clip.mp4", "video/mp4", []byte{0, 0, 0, 0x18}))
	if code != http.StatusUnprocessableEntity || body["error"] == nil {
		t.Errorf("select video = %d %v, want 422 with error", code, body)
	}
}

func TestSession_UpdateSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	selectAudio(t, f, 25)

	code, body := f.do(t, jsonRequest(http.MethodPut, "/api/session/settings", map[string]string{
		"chunkSizeMB": "1",
		"modelName":   "gemini-2.5-pro",
	}))
	if code != http.StatusOK {
		t.Fatalf("PUT settings = %d %v", code, body)
	}
	if body["chunkSizeMB"] != float64(session.DefaultMinChunkSizeMB) {
		t.Errorf("chunkSizeMB = %v, want floor %v", body["chunkSizeMB"], session.DefaultMinChunkSizeMB)
	}
	if body["modelName"] != "gemini-2.5-pro" {
		t.Errorf("modelName = %v, want gemini-2.5-pro", body["modelName"])
	}
	if chunks := body["chunks"].([]any); len(chunks) != 13 {
		t.Errorf("chunks = %d, want 13 after re-chunking at 2 MB", len(chunks))
	}
}

func TestSession_UnknownModelRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	code, _ := f.do(t, jsonRequest(http.MethodPut, "/api/session/settings", map[string]string{"modelName": "gpt-9"}))
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestSession_TranscribeAndSummarize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	selectAudio(t, f, 15)

	code, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/chunks/1/transcribe", nil))
	if code != http.StatusOK {
		t.Fatalf("transcribe chunk = %d %v", code, body)
	}
	chunk := body["chunk"].(map[string]any)
	if chunk["status"] != string(audio.StatusDone) || chunk["text"] != "hello" {
		t.Errorf("chunk = %v, want done with text", chunk)
	}

	code, body = f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/transcribe-all", nil))
	if code != http.StatusOK {
		t.Fatalf("transcribe all = %d %v", code, body)
	}
	if got := len(f.transcriber.names); got != 2 {
		t.Errorf("transcriber calls = %d, want 2 (done chunk skipped)", got)
	}

	code, body = f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/summarize", nil))
	if code != http.StatusOK || body["summary"] != "- point" {
		t.Errorf("summarize = %d %v, want 200 summary", code, body)
	}
}

func TestSession_TranscribeChunkErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	selectAudio(t, f, 5)

	if code, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/chunks/9/transcribe", nil)); code != http.StatusNotFound {
		t.Errorf("unknown chunk status = %d, want 404", code)
	}
	if code, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/chunks/x/transcribe", nil)); code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", code)
	}

	f.transcriber.err = apierr.ErrRateLimit
	code, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/chunks/0/transcribe", nil))
	if code != http.StatusTooManyRequests {
		t.Errorf("failed chunk status = %d, want 429", code)
	}
	if chunk := body["chunk"].(map[string]any); chunk["status"] != string(audio.StatusError) {
		t.Errorf("chunk status = %v, want error", chunk["status"])
	}
}

func TestSession_SummarizeEmptyTranscript(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	selectAudio(t, f, 5)

	code, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/summarize", nil))
	if code != http.StatusBadRequest || body["error"] != "No text provided" {
		t.Errorf("summarize = %d %v, want 400 No text provided", code, body)
	}
}

func TestSession_EditChunkText(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	selectAudio(t, f, 5)

	code, body := f.do(t, jsonRequest(http.MethodPut, "/api/session/chunks/0/text", map[string]string{"text": "edited"}))
	if code != http.StatusOK || body["text"] != "edited" {
		t.Errorf("edit = %d %v, want 200 text=edited", code, body)
	}
	if got := f.session.Snapshot().Transcript(); got != "edited" {
		t.Errorf("Transcript() = %q, want %q", got, "edited")
	}
}

func TestSession_CloseRevokesAudio(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	body := selectAudio(t, f, 5)
	url := body["chunks"].([]any)[0].(map[string]any)["audioUrl"].(string)

	resp, err := f.srv.App().Test(httptest.NewRequest(http.MethodGet, url+"?download=1", nil))
	if err != nil {
		t.Fatalf("GET audio: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET audio status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}

	if code, _ := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/session", nil)); code != http.StatusNoContent {
		t.Errorf("DELETE /api/session = %d, want 204", code)
	}
	if code, _ := f.do(t, httptest.NewRequest(http.MethodGet, url, nil)); code != http.StatusNotFound {
		t.Errorf("GET revoked audio = %d, want 404", code)
	}
}

func TestEvents_RequiresUpgrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	if code, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/ws/events", nil)); code != http.StatusUpgradeRequired {
		t.Errorf("GET /ws/events = %d, want 426", code)
	}
}
