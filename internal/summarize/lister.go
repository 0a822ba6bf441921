package summarize

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// ModelInfo describes one model offered by the provider.
type ModelInfo struct {
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	Description      string `json:"description"`
	InputTokenLimit  int32  `json:"inputTokenLimit"`
	OutputTokenLimit int32  `json:"outputTokenLimit"`
}

// ShortName strips the "models/" resource prefix.
func (m ModelInfo) ShortName() string {
	return strings.TrimPrefix(m.Name, "models/")
}

// modelIterator is implemented by *genai.Models.
type modelIterator interface {
	All(ctx context.Context) iter.Seq2[*genai.Model, error]
}

var _ modelIterator = (*genai.Models)(nil)

// ModelLister lists the models available to an API key.
type ModelLister struct {
	models modelIterator
}

// NewModelLister creates a Gemini model lister for apiKey.
func NewModelLister(ctx context.Context, apiKey string) (*ModelLister, error) {
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
	return &ModelLister{models: client.Models}, nil
}

// List returns every model, following pagination.
func (l *ModelLister) List(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range l.models.All(ctx) {
		if err != nil {
			return nil, classifyGeminiError(err)
		}
		if m == nil {
			continue
		}
		out = append(out, ModelInfo{
			Name:             m.Name,
			DisplayName:      m.DisplayName,
			Description:      m.Description,
			InputTokenLimit:  m.InputTokenLimit,
			OutputTokenLimit: m.OutputTokenLimit,
		})
	}
	return out, nil
}

// FilterChatModels keeps Gemini flash and pro models, sorted by name
// descending so newer versions come first.
func FilterChatModels(models []ModelInfo) []ModelInfo {
	var out []ModelInfo
	for _, m := range models {
		if strings.Contains(m.Name, "gemini") &&
			(strings.Contains(m.Name, "flash") || strings.Contains(m.Name, "pro")) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b ModelInfo) int {
		return strings.Compare(b.Name, a.Name)
	})
	return out
}
