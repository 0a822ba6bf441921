package transcribe

import "errors"

// ErrAPIKeyMissing indicates the provider's API key environment variable is not set.
var ErrAPIKeyMissing = errors.New("transcription API key not set")

// ErrUnknownProvider indicates an unsupported transcription provider name.
var ErrUnknownProvider = errors.New("unknown transcription provider")

// ErrEmptyAudio indicates an empty payload was submitted.
var ErrEmptyAudio = errors.New("empty audio payload")
