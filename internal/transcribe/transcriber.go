package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/lang"
)

// Providers and their Whisper-compatible endpoints.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"

	// GroqBaseURL is Groq's OpenAI-compatible API root.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// ModelWhisperLargeV3 is Groq's multilingual Whisper model.
	ModelWhisperLargeV3 = "whisper-large-v3"

	// ModelWhisper1 is OpenAI's hosted Whisper model.
	ModelWhisper1 = "whisper-1"
)

// DefaultLanguage is the spoken-language hint sent when none is configured.
const DefaultLanguage = "th"

// Options configures one transcription request.
type Options struct {
	// Language is the spoken-language hint (ISO 639-1 or locale).
	// Empty lets the provider auto-detect.
	Language string

	// Prompt provides vocabulary or context to improve accuracy.
	Prompt string
}

// Transcriber converts an encoded audio payload to text.
type Transcriber interface {
	// Transcribe sends audio under fileName; the extension tells the
	// provider the container format.
	Transcribe(ctx context.Context, audio []byte, fileName string, opts Options) (string, error)
}

// audioTranscriber is implemented by *openai.Client.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber talks to any OpenAI-compatible transcription endpoint
// (Groq, OpenAI).
//
// Each call makes exactly one request. A failed chunk is retried by the
// caller transcribing it again.
type OpenAITranscriber struct {
	client audioTranscriber
	model  string
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel overrides the provider's default model.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// New builds a transcriber for a named provider.
func New(provider, apiKey string, opts ...TranscriberOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w (%s)", ErrAPIKeyMissing, provider)
	}

	var (
		cfg   openai.ClientConfig
		model string
	)
	switch provider {
	case ProviderGroq, "":
		cfg = openai.DefaultConfig(apiKey)
		cfg.BaseURL = GroqBaseURL
		model = ModelWhisperLargeV3
	case ProviderOpenAI:
		cfg = openai.DefaultConfig(apiKey)
		model = ModelWhisper1
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", ErrUnknownProvider, provider, ProviderGroq, ProviderOpenAI)
	}

	return NewOpenAITranscriber(openai.NewClientWithConfig(cfg), append([]TranscriberOption{WithModel(model)}, opts...)...), nil
}

// NewOpenAITranscriber wraps an existing client. The model defaults to
// whisper-large-v3.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

func newTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  ModelWhisperLargeV3,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the model requests are sent to.
func (t *OpenAITranscriber) Model() string {
	return t.model
}

// Transcribe uploads audio and returns the recognized text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, fileName string, opts Options) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if err := lang.Validate(opts.Language); err != nil {
		return "", err
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: fileName,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: lang.BaseCode(opts.Language),
	})
	if err != nil {
		return "", classifyError(err)
	}
	return resp.Text, nil
}

// classifyError maps go-openai errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return apierr.FromContext(err)
}
