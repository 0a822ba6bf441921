package session

import "errors"

var (
	// ErrChunkNotFound indicates no chunk has the requested id.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrEmptyTranscript indicates every chunk transcript is blank, so there
	// is nothing to summarize.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrNoFile indicates an operation needs a selected file.
	ErrNoFile = errors.New("no file selected")
)
