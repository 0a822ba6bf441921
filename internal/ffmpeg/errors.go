package ffmpeg

import "errors"

// ErrNotFound indicates the FFmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrEngineFailed indicates an FFmpeg job exited with an error or produced no output.
var ErrEngineFailed = errors.New("ffmpeg job failed")
