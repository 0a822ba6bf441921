package audio

import "errors"

// ErrHandleNotFound indicates a playback handle was never issued or has been revoked.
var ErrHandleNotFound = errors.New("playback handle not found")
