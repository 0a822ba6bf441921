package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/logger"
)

// contentGenerator is implemented by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ promptSummarizer = (*GeminiSummarizer)(nil)
	_ contentGenerator = (*genai.Models)(nil)
)

// GeminiSummarizer summarizes through the Gemini API.
type GeminiSummarizer struct {
	models   contentGenerator
	language string
	log      logger.Logger
}

// Option configures a summarizer.
type Option func(*options)

type options struct {
	language   string
	model      string
	log        logger.Logger
	partTokens int
	onProgress func(phase string, current, total int)
}

// WithLanguage sets the summary language (ISO 639-1 code). Default "th".
func WithLanguage(code string) Option {
	return func(o *options) {
		if code != "" {
			o.language = code
		}
	}
}

// WithModel sets the provider model used by OpenAISummarizer when a request
// names a Gemini model. Ignored by GeminiSummarizer.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func applyOptions(opts []Option) options {
	o := options{language: defaultLanguage, log: logger.Nop(), partTokens: OpenAIPartTokens}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewGemini creates a Gemini client for apiKey.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*GeminiSummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w (gemini)", ErrAPIKeyMissing)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, opts...), nil
}

func newGemini(models contentGenerator, opts ...Option) *GeminiSummarizer {
	o := applyOptions(opts)
	return &GeminiSummarizer{models: models, language: o.language, log: o.log}
}

// Summarize corrects and summarizes text. Requests are not retried.
func (g *GeminiSummarizer) Summarize(ctx context.Context, text, model string) (string, error) {
	return g.SummarizeWith(ctx, text, model, buildPrompt(g.language))
}

// SummarizeWith runs text through the model after the prompt instruction.
func (g *GeminiSummarizer) SummarizeWith(ctx context.Context, text, model, prompt string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if model == "" {
		model = DefaultModel
	}

	input := prompt + "\n\nTranscript:\n---\n" + text + "\n---"
	g.log.Debug(ctx, "gemini %s: summarizing %d chars", model, len(text))

	result, err := g.models.GenerateContent(ctx, model, genai.Text(input), nil)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	summary := responseText(result)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// classifyGeminiError maps genai API errors to apierr sentinels.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apierr.FromStatus(apiErrPtr.Code, apiErrPtr.Message)
	}
	return apierr.FromContext(err)
}
