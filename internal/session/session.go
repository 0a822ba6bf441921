// Package session coordinates one file through normalization, partitioning,
// per-chunk transcription and summarization.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/format"
	"github.com/alnah/go-chunkscribe/internal/logger"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/summarize"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Phase is the file-processing stage of a session.
type Phase string

// Session phases. A file selection runs idle -> converting -> chunking -> idle;
// a chunk size change runs idle -> chunking -> idle.
const (
	PhaseIdle       Phase = "idle"
	PhaseConverting Phase = "converting"
	PhaseChunking   Phase = "chunking"
)

// Defaults.
const (
	DefaultChunkSizeMB    = 10.0
	DefaultMinChunkSizeMB = 2.0
	DefaultSettleDelay    = 500 * time.Millisecond

	// SummaryErrorPlaceholder replaces the summary when summarization fails.
	SummaryErrorPlaceholder = "Error summarizing"
)

// Normalizer converts a selected file to an audio stream.
// *media.Normalizer implements it.
type Normalizer interface {
	Normalize(ctx context.Context, f media.File, progress ffmpeg.ProgressFunc) (media.Result, error)
}

// Partitioner cuts a stream into chunks. *audio.Partitioner implements it.
type Partitioner interface {
	Partition(ctx context.Context, s audio.Stream, sizeMB float64, progress audio.ProgressFunc) ([]audio.Chunk, error)
}

// Compile-time interface compliance checks.
var (
	_ Normalizer  = (*media.Normalizer)(nil)
	_ Partitioner = (*audio.Partitioner)(nil)
)

// Deps are the collaborators a Session drives. Handles must be the registry
// the Partitioner issues tokens from.
type Deps struct {
	Normalizer  Normalizer
	Partitioner Partitioner
	Handles     *audio.HandleRegistry
	Transcriber transcribe.Transcriber
	Summarizer  summarize.Summarizer
}

// FileInfo describes the selected file without its bytes.
type FileInfo struct {
	Name     string         `json:"name"`
	MIMEType string         `json:"mimeType"`
	Category media.Category `json:"category"`
	Size     int64          `json:"size"`
}

// State is a point-in-time copy of the session.
type State struct {
	File           *FileInfo
	Outcome        media.Outcome
	Chunks         []audio.Chunk
	ChunkSizeMB    float64
	ChunkSizeInput string
	Model          string
	Summary        string
	Phase          Phase
	Progress       float64
	Transcribing   bool
	Summarizing    bool
}

// Transcript joins chunk texts in id order with single spaces.
func (st State) Transcript() string {
	var b []byte
	for i, c := range st.Chunks {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, c.Text...)
	}
	return string(b)
}

// Session owns the state of one user's work on one file at a time.
//
// Operations that change the file, the chunk set or run network calls are
// serialized. Snapshot and Subscribe never wait on them.
type Session struct {
	deps          Deps
	log           logger.Logger
	minChunkSize  float64
	settleDelay   time.Duration
	transcribeOpt transcribe.Options

	op sync.Mutex // serializes operations

	mu     sync.RWMutex // guards the fields below
	state  State
	source *audio.Stream
	last   float64 // highest progress emitted in the current operation

	events *broker
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithChunkSize sets the initial chunk size in megabytes.
func WithChunkSize(mb float64) Option {
	return func(s *Session) {
		if mb > 0 {
			s.state.ChunkSizeMB = mb
		}
	}
}

// WithMinChunkSize sets the floor applied when a chunk size is confirmed.
func WithMinChunkSize(mb float64) Option {
	return func(s *Session) {
		if mb > 0 {
			s.minChunkSize = mb
		}
	}
}

// WithModel sets the initial summarization model.
func WithModel(model string) Option {
	return func(s *Session) {
		if model != "" {
			s.state.Model = model
		}
	}
}

// WithSettleDelay sets the pause between reaching 100% and returning to idle.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithTranscribeOptions sets the language and prompt sent with every chunk.
func WithTranscribeOptions(o transcribe.Options) Option {
	return func(s *Session) { s.transcribeOpt = o }
}

// New creates an idle session.
func New(deps Deps, opts ...Option) *Session {
	s := &Session{
		deps:         deps,
		log:          logger.Nop(),
		minChunkSize: DefaultMinChunkSizeMB,
		settleDelay:  DefaultSettleDelay,
		events:       newBroker(),
		state: State{
			ChunkSizeMB: DefaultChunkSizeMB,
			Model:       summarize.DefaultModel,
			Phase:       PhaseIdle,
		},
	}
	if s.deps.Handles == nil {
		s.deps.Handles = audio.NewHandleRegistry()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.ChunkSizeInput = format.Megabytes(s.state.ChunkSizeMB)
	return s
}

// Snapshot returns a copy of the current state. The chunk slice is private
// to the caller; payloads are shared and must not be modified.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Chunks = append([]audio.Chunk(nil), s.state.Chunks...)
	if s.state.File != nil {
		f := *s.state.File
		st.File = &f
	}
	return st
}

// Subscribe registers for change events. Call cancel to unsubscribe; it
// closes the channel. A subscriber that falls behind misses events.
func (s *Session) Subscribe() (events <-chan Event, cancel func()) {
	return s.events.subscribe()
}

// Playback resolves a chunk playback handle.
func (s *Session) Playback(token string) (audio.Playback, error) {
	return s.deps.Handles.Open(token)
}

// MinChunkSize returns the floor applied to confirmed chunk sizes.
func (s *Session) MinChunkSize() float64 {
	return s.minChunkSize
}

// Close releases every playback handle and clears the file, chunks and
// summary. Settings are kept and the session stays usable.
func (s *Session) Close() {
	s.op.Lock()
	defer s.op.Unlock()

	s.releaseChunks()
	s.mu.Lock()
	s.state.File = nil
	s.state.Outcome = ""
	s.state.Summary = ""
	s.state.Phase = PhaseIdle
	s.state.Progress = 0
	s.source = nil
	s.mu.Unlock()
	s.events.publish(Event{Type: EventPhase, Phase: PhaseIdle})
	s.publishChunks()
}

// releaseChunks revokes the handles of the current chunks and drops them.
func (s *Session) releaseChunks() {
	s.mu.Lock()
	chunks := s.state.Chunks
	s.state.Chunks = nil
	s.mu.Unlock()

	tokens := make([]string, 0, len(chunks))
	for _, c := range chunks {
		tokens = append(tokens, c.Handle)
	}
	if n := s.deps.Handles.Revoke(tokens...); n > 0 {
		s.log.Debug(context.Background(), "revoked %d playback handles", n)
	}
}

// setPhase enters a phase and restarts progress at zero.
func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.state.Phase = p
	s.state.Progress = 0
	s.last = 0
	s.mu.Unlock()
	s.events.publish(Event{Type: EventPhase, Phase: p})
	s.events.publish(Event{Type: EventProgress, Phase: p, Progress: 0})
}

// setProgress records percent if it moves forward within the current phase.
func (s *Session) setProgress(percent float64) {
	percent = min(max(percent, 0), 100)
	s.mu.Lock()
	if percent <= s.last {
		s.mu.Unlock()
		return
	}
	s.last = percent
	s.state.Progress = percent
	phase := s.state.Phase
	s.mu.Unlock()
	s.events.publish(Event{Type: EventProgress, Phase: phase, Progress: percent})
}

func (s *Session) publishChunks() {
	s.mu.RLock()
	n := len(s.state.Chunks)
	s.mu.RUnlock()
	s.events.publish(Event{Type: EventChunks, Count: n})
}

func (s *Session) publishBusy() {
	s.mu.RLock()
	e := Event{Type: EventBusy, Transcribing: s.state.Transcribing, Summarizing: s.state.Summarizing}
	s.mu.RUnlock()
	s.events.publish(e)
}

// settle waits the settle delay unless ctx ends first.
func (s *Session) settle(ctx context.Context) {
	if s.settleDelay <= 0 {
		return
	}
	t := time.NewTimer(s.settleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
