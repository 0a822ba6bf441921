package audio

import (
	"sync"

	"github.com/google/uuid"
)

// Playback is the content behind a playback handle.
type Playback struct {
	Data     []byte
	FileName string
}

// HandleRegistry issues opaque tokens that resolve to chunk payloads for
// playback and download. Tokens stay valid until revoked. Safe for
// concurrent use.
type HandleRegistry struct {
	mu      sync.RWMutex
	entries map[string]Playback
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{entries: make(map[string]Playback)}
}

// Create registers data under a fresh token.
func (r *HandleRegistry) Create(data []byte, fileName string) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.entries[token] = Playback{Data: data, FileName: fileName}
	r.mu.Unlock()
	return token
}

// Open resolves a token. Revoked or unknown tokens return ErrHandleNotFound.
func (r *HandleRegistry) Open(token string) (Playback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pb, ok := r.entries[token]
	if !ok {
		return Playback{}, ErrHandleNotFound
	}
	return pb, nil
}

// Revoke releases tokens and reports how many were live.
func (r *HandleRegistry) Revoke(tokens ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range tokens {
		if _, ok := r.entries[t]; ok {
			delete(r.entries, t)
			n++
		}
	}
	return n
}

// Len returns the number of live tokens.
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
