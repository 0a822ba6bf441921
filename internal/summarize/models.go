// Package summarize turns a transcript into a corrected bullet-point summary
// through a hosted language model.
package summarize

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/lang"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "gemini-2.5-flash"

// Models is the set of models a session may select, in display order.
var Models = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// ValidateModel returns ErrUnknownModel unless name is one of Models.
func ValidateModel(name string) error {
	if slices.Contains(Models, name) {
		return nil
	}
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownModel, name, strings.Join(Models, ", "))
}

// Summarizer produces a summary of text with the named model.
// An empty model means DefaultModel.
type Summarizer interface {
	Summarize(ctx context.Context, text, model string) (string, error)
}

// promptTemplate asks for contextual correction first, then the summary.
// The single %s is the output language name.
const promptTemplate = `The text below was transcribed automatically from speech and may contain recognition errors.

Instructions:
1. Correct: fix misrecognized words using the surrounding context.
2. Summarize: list the key points as bullet points.

Constraints:
- Do not use bold (**...**).
- Do not use italics (*...*).
- Plain text only.
- Use a hyphen (-) for every bullet.
- Write in %s.

Return the result as Markdown.`

// buildPrompt returns the instruction prompt for the given output language.
// An empty or unknown code falls back to the transcription default.
func buildPrompt(outputLang string) string {
	name := lang.DisplayName(outputLang)
	if name == "" {
		name = lang.DisplayName(defaultLanguage)
	}
	return fmt.Sprintf(promptTemplate, name)
}

// defaultLanguage matches the default spoken language of transcripts.
const defaultLanguage = "th"
