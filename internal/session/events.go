package session

import (
	"sync"

	"github.com/alnah/go-chunkscribe/internal/audio"
)

// EventType names what changed in the session.
type EventType string

// Event types.
const (
	EventPhase    EventType = "phase"
	EventProgress EventType = "progress"
	EventChunks   EventType = "chunks"
	EventChunk    EventType = "chunk"
	EventSettings EventType = "settings"
	EventBusy     EventType = "busy"
	EventSummary  EventType = "summary"
	EventAlert    EventType = "alert"
)

// Event is a change notification. Only the fields relevant to Type are set;
// Snapshot remains the source of truth.
type Event struct {
	Type         EventType    `json:"type"`
	Phase        Phase        `json:"phase,omitempty"`
	Progress     float64      `json:"progress"`
	ChunkID      int          `json:"chunkId"`
	Status       audio.Status `json:"status,omitempty"`
	Count        int          `json:"count"`
	Transcribing bool         `json:"transcribing"`
	Summarizing  bool         `json:"summarizing"`
	Message      string       `json:"message,omitempty"`
}

// subscriberBuffer bounds per-subscriber backlog. Events beyond it are dropped.
const subscriberBuffer = 64

// broker fans events out to subscribers without blocking the publisher.
type broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
