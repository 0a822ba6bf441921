package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/audio"
)

// BatchReport summarizes a TranscribeAll sweep.
type BatchReport struct {
	Visited   int           `json:"visited"`
	Succeeded int           `json:"succeeded"`
	Failed    []int         `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    map[int]error `json:"-"`
}

// UpdateChunkText replaces a chunk transcript with user-edited text.
func (s *Session) UpdateChunkText(id int, text string) error {
	if !s.updateChunk(id, func(c *audio.Chunk) { c.Text = text }) {
		return fmt.Errorf("%w: %d", ErrChunkNotFound, id)
	}
	s.events.publish(Event{Type: EventChunk, ChunkID: id})
	return nil
}

// TranscribeChunk sends one chunk to the transcriber. On success the chunk
// becomes done with the returned text; on failure it becomes error, keeps
// its previous text and the error is returned.
func (s *Session) TranscribeChunk(ctx context.Context, id int) error {
	s.op.Lock()
	defer s.op.Unlock()
	return s.transcribeChunk(ctx, id)
}

// TranscribeAll transcribes every chunk that is not done, one at a time in
// id order. A chunk failure is recorded and the sweep moves on. The sweep
// stops early only when ctx ends; the remaining chunks are counted as
// skipped and ctx.Err() is returned.
func (s *Session) TranscribeAll(ctx context.Context) (BatchReport, error) {
	s.op.Lock()
	defer s.op.Unlock()

	var ids []int
	s.mu.Lock()
	for _, c := range s.state.Chunks {
		if c.Status != audio.StatusDone {
			ids = append(ids, c.ID)
		}
	}
	s.state.Transcribing = true
	s.mu.Unlock()
	s.publishBusy()

	defer func() {
		s.mu.Lock()
		s.state.Transcribing = false
		s.mu.Unlock()
		s.publishBusy()
	}()

	report := BatchReport{Errors: make(map[int]error)}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Skipped = len(ids) - i
			return report, err
		}
		report.Visited++
		if err := s.transcribeChunk(ctx, id); err != nil {
			report.Failed = append(report.Failed, id)
			report.Errors[id] = err
			continue
		}
		report.Succeeded++
	}
	s.log.Info(ctx, "transcribed %d/%d chunks", report.Succeeded, report.Visited)
	return report, nil
}

func (s *Session) transcribeChunk(ctx context.Context, id int) error {
	var target audio.Chunk
	found := s.updateChunk(id, func(c *audio.Chunk) {
		c.Status = audio.StatusProcessing
		target = *c
	})
	if !found {
		return fmt.Errorf("%w: %d", ErrChunkNotFound, id)
	}
	s.events.publish(Event{Type: EventChunk, ChunkID: id, Status: audio.StatusProcessing})

	text, err := s.deps.Transcriber.Transcribe(ctx, target.Payload, target.FileName, s.transcribeOpt)
	if err != nil {
		s.updateChunk(id, func(c *audio.Chunk) { c.Status = audio.StatusError })
		s.events.publish(Event{Type: EventChunk, ChunkID: id, Status: audio.StatusError, Message: err.Error()})
		s.log.Warn(ctx, "%s: transcription failed: %v", target.FileName, err)
		return fmt.Errorf("transcribe chunk %d: %w", id, err)
	}

	s.updateChunk(id, func(c *audio.Chunk) {
		c.Status = audio.StatusDone
		c.Text = text
	})
	s.events.publish(Event{Type: EventChunk, ChunkID: id, Status: audio.StatusDone})
	s.log.Debug(ctx, "%s: %d chars", target.FileName, len(text))
	return nil
}

// updateChunk swaps in a new chunk slice with fn applied to chunk id.
// Snapshots taken earlier keep the old slice.
func (s *Session) updateChunk(id int, fn func(*audio.Chunk)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.state.Chunks {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	next := make([]audio.Chunk, len(s.state.Chunks))
	copy(next, s.state.Chunks)
	fn(&next[idx])
	s.state.Chunks = next
	return true
}

// Summarize summarizes the joined chunk transcripts with the selected model
// and stores the result. A blank transcript returns ErrEmptyTranscript
// without any request. On failure the stored summary becomes
// SummaryErrorPlaceholder and the error is returned.
func (s *Session) Summarize(ctx context.Context) (string, error) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	text := s.state.Transcript()
	model := s.state.Model
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return "", ErrEmptyTranscript
	}
	s.state.Summarizing = true
	s.mu.Unlock()
	s.publishBusy()

	summary, err := s.deps.Summarizer.Summarize(ctx, text, model)

	s.mu.Lock()
	s.state.Summarizing = false
	if err != nil {
		s.state.Summary = SummaryErrorPlaceholder
	} else {
		s.state.Summary = summary
	}
	s.mu.Unlock()
	s.publishBusy()
	s.events.publish(Event{Type: EventSummary})

	if err != nil {
		s.log.Error(ctx, "summarize with %s: %v", model, err)
		return "", fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}
