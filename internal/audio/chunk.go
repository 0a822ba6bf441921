package audio

import (
	"fmt"
	"time"

	"github.com/alnah/go-chunkscribe/internal/format"
)

// Status is the transcription state of a chunk.
type Status string

// Chunk statuses. A chunk starts idle, becomes processing while its
// transcription request is in flight, then done or error.
const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Stream is an encoded audio buffer. Ext names its container (".mp3", ".m4a")
// and is carried into probe inputs and chunk file names.
type Stream struct {
	Data []byte
	Ext  string
}

// Chunk is a contiguous byte slice of a Stream with its playback-time range.
//
// Payload aliases the source stream and must not be modified. Handle is a
// revocable playback token issued by a HandleRegistry.
type Chunk struct {
	ID       int
	Payload  []byte
	Handle   string
	FileName string
	Start    time.Duration
	End      time.Duration
	Text     string
	Status   Status
}

// Duration returns the probed length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

// Size returns the payload length in bytes.
func (c Chunk) Size() int {
	return len(c.Payload)
}

// Label renders the time range for display, e.g. "04:00 - 08:00".
func (c Chunk) Label() string {
	return format.Duration(c.Start) + " - " + format.Duration(c.End)
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s (%s, %s)", c.ID, c.Label(), format.Size(int64(c.Size())), c.Status)
}

// ChunkFileName suggests a download name such as "part_001_00m00s-04m00s.mp3".
func ChunkFileName(id int, start, end time.Duration, ext string) string {
	return fmt.Sprintf("part_%03d_%s-%s%s", id+1, format.Stamp(start), format.Stamp(end), ext)
}
