package summarize

import "errors"

var (
	// ErrEmptyText indicates there is nothing to summarize.
	ErrEmptyText = errors.New("no text to summarize")

	// ErrUnknownModel indicates a model outside the supported set.
	ErrUnknownModel = errors.New("unknown summarization model")

	// ErrAPIKeyMissing indicates no API key was configured for the provider.
	ErrAPIKeyMissing = errors.New("summarization API key not set")

	// ErrEmptyResponse indicates the model answered without any text.
	ErrEmptyResponse = errors.New("empty response from model")
)
