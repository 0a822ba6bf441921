package summarize

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/logger"
)

// defaultOpenAIModel answers requests that name a Gemini model.
const defaultOpenAIModel = "gpt-4o-mini"

// chatCompleter is implemented by *openai.Client.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ promptSummarizer = (*OpenAISummarizer)(nil)
	_ chatCompleter    = (*openai.Client)(nil)
)

// OpenAISummarizer summarizes through an OpenAI-compatible chat endpoint.
// Session model names are Gemini identifiers, so those map to the model set
// with WithModel; any other name is sent as is.
type OpenAISummarizer struct {
	client   chatCompleter
	model    string
	language string
	log      logger.Logger
}

// NewOpenAI creates an OpenAI chat summarizer for apiKey.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w (openai)", ErrAPIKeyMissing)
	}
	return newOpenAI(openai.NewClient(apiKey), opts...), nil
}

func newOpenAI(client chatCompleter, opts ...Option) *OpenAISummarizer {
	o := applyOptions(opts)
	if o.model == "" {
		o.model = defaultOpenAIModel
	}
	return &OpenAISummarizer{client: client, model: o.model, language: o.language, log: o.log}
}

// Summarize corrects and summarizes text. Requests are not retried.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text, model string) (string, error) {
	return s.SummarizeWith(ctx, text, model, buildPrompt(s.language))
}

// SummarizeWith runs text through the model with prompt as the system
// instruction.
func (s *OpenAISummarizer) SummarizeWith(ctx context.Context, text, model, prompt string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	model = s.resolveModel(model)
	s.log.Debug(ctx, "openai %s: summarizing %d chars", model, len(text))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}

func (s *OpenAISummarizer) resolveModel(model string) string {
	if model == "" || slices.Contains(Models, model) {
		return s.model
	}
	return model
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
func classifyOpenAIError(err error) error {
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
