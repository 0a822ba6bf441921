package media

import "errors"

// ErrVideoConversion indicates a video file could not be converted to audio.
// Video has no usable fallback, so this aborts the session.
var ErrVideoConversion = errors.New("video conversion failed")

// ErrEngineUnavailable indicates no transcode engine is configured (FFmpeg missing).
var ErrEngineUnavailable = errors.New("transcode engine unavailable")
