package summarize

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/logger"
)

// Token budgets per part, leaving room for the prompt and the answer.
const (
	OpenAIPartTokens = 80_000  // 128K context
	GeminiPartTokens = 500_000 // 1M context
)

// runesPerToken is deliberately low: Thai and other non-Latin scripts
// tokenize far denser than English.
const runesPerToken = 2

// estimateTokens approximates the token count of text.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / runesPerToken
}

// promptSummarizer accepts a replacement instruction prompt. Both provider
// summarizers implement it.
type promptSummarizer interface {
	Summarizer
	SummarizeWith(ctx context.Context, text, model, prompt string) (string, error)
}

// part is one slice of a transcript too long for a single request.
type part struct {
	index int
	total int
	text  string
}

// splitText cuts text into parts of at most maxTokens, breaking at the last
// whitespace before the limit. Returns nil when text fits in one request.
func splitText(text string, maxTokens int) []part {
	if estimateTokens(text) <= maxTokens {
		return nil
	}
	limit := maxTokens * runesPerToken

	var parts []part
	rest := []rune(strings.TrimSpace(text))
	for len(rest) > 0 {
		if len(rest) <= limit {
			parts = append(parts, part{text: string(rest)})
			break
		}
		cut := limit
		for i := limit; i > limit/2; i-- {
			if unicode.IsSpace(rest[i]) {
				cut = i
				break
			}
		}
		parts = append(parts, part{text: strings.TrimSpace(string(rest[:cut]))})
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	if len(parts) < 2 {
		return nil
	}
	for i := range parts {
		parts[i].index = i
		parts[i].total = len(parts)
	}
	return parts
}

const partPromptPrefix = `This transcript was split into %d parts because of its length.
You are reading part %d of %d. Its summary will be merged with the others.

%s`

// mergePromptTemplate takes the output language name.
const mergePromptTemplate = `You receive bullet-point summaries of consecutive parts of one transcript.
Merge them into a single bullet-point summary.

Rules:
- Remove points repeated across parts.
- Keep every distinct point.
- Keep the order in which topics first appear.
- Do not use bold or italics.
- Use a hyphen (-) for every bullet.
- Write in %s.

Return the result as Markdown.`

// LongSummarizer summarizes transcripts of any length. Transcripts over the
// part budget are summarized part by part, then the part summaries are
// merged in one final request.
type LongSummarizer struct {
	inner      promptSummarizer
	maxTokens  int
	language   string
	log        logger.Logger
	onProgress func(phase string, current, total int)
}

var _ Summarizer = (*LongSummarizer)(nil)

// WithPartTokens sets the token budget of one part for NewLong.
// Default OpenAIPartTokens, the smaller of the two.
func WithPartTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.partTokens = n
		}
	}
}

// WithProgress sets a callback NewLong runs before each request. phase is
// "part" or "merge".
func WithProgress(fn func(phase string, current, total int)) Option {
	return func(o *options) { o.onProgress = fn }
}

// NewLong wraps a provider summarizer. WithLanguage, WithLogger,
// WithPartTokens and WithProgress apply.
func NewLong(inner promptSummarizer, opts ...Option) *LongSummarizer {
	o := applyOptions(opts)
	return &LongSummarizer{
		inner:      inner,
		maxTokens:  o.partTokens,
		language:   o.language,
		log:        o.log,
		onProgress: o.onProgress,
	}
}

// Summarize sends short transcripts through unchanged.
func (l *LongSummarizer) Summarize(ctx context.Context, text, model string) (string, error) {
	parts := splitText(text, l.maxTokens)
	if parts == nil {
		return l.inner.Summarize(ctx, text, model)
	}
	l.log.Info(ctx, "transcript of ~%d tokens split into %d parts", estimateTokens(text), len(parts))

	base := buildPrompt(l.language)
	summaries := make([]string, len(parts))
	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		l.progress("part", i+1, len(parts))
		prompt := fmt.Sprintf(partPromptPrefix, p.total, p.index+1, p.total, base)
		s, err := l.inner.SummarizeWith(ctx, p.text, model, prompt)
		if err != nil {
			return "", fmt.Errorf("summarize part %d/%d: %w", i+1, len(parts), err)
		}
		summaries[i] = s
	}

	l.progress("merge", 1, 1)
	merged, err := l.inner.SummarizeWith(ctx, joinParts(summaries), model, mergePrompt(l.language))
	if err != nil {
		return "", fmt.Errorf("merge part summaries: %w", err)
	}
	return merged, nil
}

func (l *LongSummarizer) progress(phase string, current, total int) {
	if l.onProgress != nil {
		l.onProgress(phase, current, total)
	}
}

func joinParts(summaries []string) string {
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== PART %d ===\n\n%s", i+1, s)
	}
	return b.String()
}

func mergePrompt(outputLang string) string {
	name := lang.DisplayName(outputLang)
	if name == "" {
		name = lang.DisplayName(defaultLanguage)
	}
	return fmt.Sprintf(mergePromptTemplate, name)
}
