package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/audio"
)

// Format is an output file format.
type Format string

// Output formats.
const (
	FormatMarkdown Format = "md"
	FormatDOCX     Format = "docx"
)

// FormatFor picks the format from the path extension. Anything other than
// .docx is written as Markdown.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return FormatDOCX
	}
	return FormatMarkdown
}

// Write saves doc to path in the format its extension names.
// Existing files are never overwritten.
func Write(path string, doc Document) error {
	if FormatFor(path) == FormatDOCX {
		return WriteDOCX(path, doc)
	}
	return writeFileAtomic(path, []byte(doc.Markdown()))
}

// WriteChunks saves every chunk payload into dir under its suggested file
// name and returns the written paths. It stops at the first failure.
func WriteChunks(dir string, chunks []audio.Chunk) ([]string, error) {
	paths := make([]string, 0, len(chunks))
	for _, c := range chunks {
		p := filepath.Join(dir, c.FileName)
		if err := writeFileAtomic(p, c.Payload); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// writeFileAtomic writes content to path.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path string, content []byte) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}
