// Package apierr classifies failures from the transcription and
// summarization providers into a small set of sentinels.
//
// Adapters wrap the provider message around a sentinel at the client
// boundary (FromStatus, FromContext). The CLI maps the sentinels to exit
// codes and the HTTP server maps them to status codes. Requests are never
// retried here: a failed chunk stays failed until it is transcribed again.
package apierr

import "errors"

var (
	// ErrRateLimit means the provider throttled the request. Waiting and
	// transcribing the chunk again usually succeeds.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded means the account ran out of quota or credit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout covers deadlines and upstream 5xx responses.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed means the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest is any other 4xx, e.g. an upload the provider refused.
	ErrBadRequest = errors.New("bad request")
)
