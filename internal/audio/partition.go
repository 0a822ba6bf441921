package audio

import (
	"context"
	"math"
	"time"

	"github.com/alnah/go-chunkscribe/internal/logger"
)

// bytesPerMB is the binary megabyte used for chunk sizes.
const bytesPerMB = 1024 * 1024

// ProgressFunc receives partitioning progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// ChunkBytes converts a chunk size in megabytes to a byte count, rounding
// down. Non-positive and NaN sizes yield zero.
func ChunkBytes(sizeMB float64) int {
	if math.IsNaN(sizeMB) || sizeMB <= 0 {
		return 0
	}
	b := math.Floor(sizeMB * bytesPerMB)
	if b >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(b)
}

// Partitioner cuts a stream into fixed-size byte chunks and assigns each a
// cumulative playback-time range from probed durations.
type Partitioner struct {
	prober  Prober
	handles *HandleRegistry
	log     logger.Logger
}

// PartitionerOption configures a Partitioner.
type PartitionerOption func(*Partitioner)

// WithPartitionerLogger sets the logger.
func WithPartitionerLogger(l logger.Logger) PartitionerOption {
	return func(p *Partitioner) { p.log = l }
}

// NewPartitioner creates a Partitioner issuing playback handles from handles.
func NewPartitioner(prober Prober, handles *HandleRegistry, opts ...PartitionerOption) *Partitioner {
	p := &Partitioner{
		prober:  prober,
		handles: handles,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Partition splits s into chunks of at most sizeMB megabytes.
//
// Chunks are contiguous, non-overlapping and cover the whole stream in
// order; only the last may be shorter. Durations are probed one chunk at a
// time and accumulated, so each chunk starts where the previous one ended.
// A size that rounds to zero bytes yields no chunks. progress may be nil.
// On context cancellation, handles issued so far are revoked.
func (p *Partitioner) Partition(ctx context.Context, s Stream, sizeMB float64, progress ProgressFunc) ([]Chunk, error) {
	size := ChunkBytes(sizeMB)
	if size <= 0 {
		return nil, nil
	}

	total := len(s.Data)
	var (
		chunks  []Chunk
		elapsed time.Duration
	)
	for cursor := 0; cursor < total; {
		if err := ctx.Err(); err != nil {
			p.release(chunks)
			return nil, err
		}

		end := cursor + min(size, total-cursor)
		payload := s.Data[cursor:end:end]
		d := p.prober.Probe(ctx, payload, s.Ext)
		if d == 0 {
			p.log.Debug(ctx, "chunk %d: zero duration (%d bytes)", len(chunks), len(payload))
		}

		c := Chunk{
			ID:      len(chunks),
			Payload: payload,
			Start:   elapsed,
			End:     elapsed + d,
			Status:  StatusIdle,
		}
		c.FileName = ChunkFileName(c.ID, c.Start, c.End, s.Ext)
		c.Handle = p.handles.Create(payload, c.FileName)
		chunks = append(chunks, c)

		elapsed = c.End
		cursor = end
		if progress != nil {
			progress(float64(cursor) / float64(total) * 100)
		}
	}

	p.log.Debug(ctx, "partitioned %d bytes into %d chunks (%s)", total, len(chunks), elapsed)
	return chunks, nil
}

func (p *Partitioner) release(chunks []Chunk) {
	tokens := make([]string, len(chunks))
	for i, c := range chunks {
		tokens[i] = c.Handle
	}
	p.handles.Revoke(tokens...)
}
