package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates a provider API key environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrUnsupportedFormat indicates an input file is not audio or video.
	ErrUnsupportedFormat = errors.New("unsupported media format")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrTranscriptionFailed indicates no chunk could be transcribed.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrSummaryFailed indicates the transcript was written without a summary.
	ErrSummaryFailed = errors.New("summary failed")
)
