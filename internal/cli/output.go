package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/session"
)

// deriveOutputPath converts a media file path to a document name.
// Example: "lecture.mp4", docx -> "lecture.docx"
func deriveOutputPath(inputPath string, format export.Format) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(filepath.Base(inputPath), ext) + "." + string(format)
}

// deriveChunkDir names the directory split writes chunks into.
// Example: "lecture.mp4" -> "lecture_chunks"
func deriveChunkDir(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(filepath.Base(inputPath), ext) + "_chunks"
}

// warnUnknownExtension writes a warning to w if path has an extension that
// is neither .md nor .docx. Such files are written as Markdown.
func warnUnknownExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".md" && ext != ".docx" {
		_, _ = fmt.Fprintf(w, "Warning: output is Markdown regardless of %s extension\n", ext)
	}
}

// progressPrinter renders session events as status lines. Progress is
// printed once per 10% step so terminals are not flooded.
type progressPrinter struct {
	w     io.Writer
	phase session.Phase
	step  int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, phase: session.PhaseIdle, step: -1}
}

func (p *progressPrinter) handle(e session.Event) {
	switch e.Type {
	case session.EventPhase:
		if e.Phase != p.phase && e.Phase != session.PhaseIdle {
			_, _ = fmt.Fprintf(p.w, "%s...\n", phaseLabel(e.Phase))
		}
		p.phase = e.Phase
		p.step = -1
	case session.EventProgress:
		if p.phase == session.PhaseIdle {
			return
		}
		if step := int(e.Progress) / 10; step > p.step {
			p.step = step
			_, _ = fmt.Fprintf(p.w, "  %3.0f%%\n", e.Progress)
		}
	case session.EventChunk:
		switch e.Status {
		case audio.StatusDone:
			_, _ = fmt.Fprintf(p.w, "  chunk %d done\n", e.ChunkID+1)
		case audio.StatusError:
			_, _ = fmt.Fprintf(p.w, "  chunk %d failed: %s\n", e.ChunkID+1, e.Message)
		}
	case session.EventAlert:
		_, _ = fmt.Fprintf(p.w, "Warning: %s\n", e.Message)
	}
}

// follow prints events until the channel closes.
func (p *progressPrinter) follow(events <-chan session.Event) {
	for e := range events {
		p.handle(e)
	}
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.PhaseConverting:
		return "Converting"
	case session.PhaseChunking:
		return "Chunking"
	default:
		return string(p)
	}
}
