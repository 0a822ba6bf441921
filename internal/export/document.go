// Package export writes session results to disk: transcripts and summaries
// as Markdown or DOCX, and chunk audio under its suggested file name.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-chunkscribe/internal/audio"
)

// Section is one chunk transcript with its time range.
type Section struct {
	Label string
	Text  string
}

// Document is everything written for one processed file.
type Document struct {
	Title    string
	Source   string
	Model    string
	Created  time.Time
	Summary  string
	Sections []Section
}

// NewDocument builds a Document from chunks in id order.
func NewDocument(source string, chunks []audio.Chunk, summary, model string, created time.Time) Document {
	doc := Document{
		Title:   strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
		Source:  filepath.Base(source),
		Model:   model,
		Created: created,
		Summary: summary,
	}
	for _, c := range chunks {
		doc.Sections = append(doc.Sections, Section{Label: c.Label(), Text: c.Text})
	}
	return doc
}

// Markdown renders the document. The summary comes first, then the
// transcript with one heading per chunk.
func (d Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	if !d.Created.IsZero() {
		fmt.Fprintf(&b, "_%s_\n\n", d.Created.Format("2006-01-02 15:04"))
	}
	if s := strings.TrimSpace(d.Summary); s != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	if len(d.Sections) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, s := range d.Sections {
			fmt.Fprintf(&b, "### %s\n\n", s.Label)
			if t := strings.TrimSpace(s.Text); t != "" {
				b.WriteString(t)
				b.WriteString("\n\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
