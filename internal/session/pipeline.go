package session

import (
	"context"
	"fmt"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/format"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/summarize"
)

// SelectFile replaces the session file and runs normalization then
// partitioning on it.
//
// Previous chunks are released first and the summary is cleared. A failed
// video conversion returns media.ErrVideoConversion, emits an alert and
// leaves the session idle with no file. Audio conversion failures fall back
// to the original bytes (see State.Outcome).
func (s *Session) SelectFile(ctx context.Context, f media.File) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.releaseChunks()
	s.mu.Lock()
	s.state.File = &FileInfo{Name: f.Name, MIMEType: f.MIMEType, Category: f.Category(), Size: f.Size()}
	s.state.Outcome = ""
	s.state.Summary = ""
	s.source = nil
	s.mu.Unlock()
	s.publishChunks()
	s.events.publish(Event{Type: EventSummary})
	s.setPhase(PhaseConverting)

	s.log.Info(ctx, "converting %s (%s, %s)", f.Name, f.MIMEType, format.Size(f.Size()))
	res, err := s.deps.Normalizer.Normalize(ctx, f, func(fraction float64) {
		s.setProgress(fraction * 100)
	})
	if err != nil {
		s.mu.Lock()
		s.state.File = nil
		s.mu.Unlock()
		s.setPhase(PhaseIdle)
		s.events.publish(Event{Type: EventAlert, Message: fmt.Sprintf("Could not convert %s: %v", f.Name, err)})
		return err
	}
	if res.Outcome == media.OutcomeFallback {
		s.log.Warn(ctx, "%s: using original bytes: %v", f.Name, res.Reason)
	}

	stream := res.Stream
	s.mu.Lock()
	s.state.Outcome = res.Outcome
	s.source = &stream
	s.mu.Unlock()

	return s.partition(ctx)
}

// ConfirmChunkSize applies a chunk size typed by the user and returns the
// value kept. Input that is not a number or is below the floor becomes the
// floor. When a file is loaded its chunks are rebuilt from the retained
// stream without converting again.
func (s *Session) ConfirmChunkSize(ctx context.Context, input string) (float64, error) {
	s.op.Lock()
	defer s.op.Unlock()

	v := ParseChunkSize(input, s.minChunkSize)
	s.mu.Lock()
	s.state.ChunkSizeMB = v
	s.state.ChunkSizeInput = format.Megabytes(v)
	loaded := s.source != nil
	s.mu.Unlock()
	s.events.publish(Event{Type: EventSettings})

	if !loaded {
		return v, nil
	}
	s.releaseChunks()
	s.publishChunks()
	return v, s.partition(ctx)
}

// SetModel selects the summarization model.
func (s *Session) SetModel(name string) error {
	if err := summarize.ValidateModel(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Model = name
	s.mu.Unlock()
	s.events.publish(Event{Type: EventSettings})
	return nil
}

// partition cuts the retained stream at the current chunk size, then settles
// back to idle. Callers hold s.op.
func (s *Session) partition(ctx context.Context) error {
	s.mu.RLock()
	stream := *s.source
	size := s.state.ChunkSizeMB
	s.mu.RUnlock()

	s.setPhase(PhaseChunking)
	chunks, err := s.deps.Partitioner.Partition(ctx, stream, size, audio.ProgressFunc(s.setProgress))
	if err != nil {
		s.setPhase(PhaseIdle)
		return fmt.Errorf("partition: %w", err)
	}

	s.mu.Lock()
	s.state.Chunks = chunks
	s.mu.Unlock()
	s.publishChunks()
	s.log.Info(ctx, "%d chunks of up to %s MB", len(chunks), format.Megabytes(size))

	s.setProgress(100)
	s.settle(ctx)
	s.setPhase(PhaseIdle)
	return nil
}
