package summarize

// Exports for testing. These allow black-box tests to inject fake provider
// clients without network access.

// ContentGenerator exports contentGenerator for mocks.
type ContentGenerator = contentGenerator

// ChatCompleter exports chatCompleter for mocks.
type ChatCompleter = chatCompleter

// ModelIterator exports modelIterator for mocks.
type ModelIterator = modelIterator

// NewTestGemini creates a GeminiSummarizer around a mock generator.
func NewTestGemini(models contentGenerator, opts ...Option) *GeminiSummarizer {
	return newGemini(models, opts...)
}

// NewTestOpenAI creates an OpenAISummarizer around a mock client.
func NewTestOpenAI(client chatCompleter, opts ...Option) *OpenAISummarizer {
	return newOpenAI(client, opts...)
}

// NewTestModelLister creates a ModelLister around a mock iterator.
func NewTestModelLister(models modelIterator) *ModelLister {
	return &ModelLister{models: models}
}

// BuildPrompt exports buildPrompt for unit testing.
var BuildPrompt = buildPrompt

// ClassifyGeminiError exports classifyGeminiError for unit testing.
var ClassifyGeminiError = classifyGeminiError

// SplitText exports splitText, returning only the part texts.
func SplitText(text string, maxTokens int) []string {
	parts := splitText(text, maxTokens)
	if parts == nil {
		return nil
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.text
	}
	return out
}

// EstimateTokens exports estimateTokens for unit testing.
var EstimateTokens = estimateTokens
