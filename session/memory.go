package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is a thread-safe in-memory Registry. Tokens never expire
// and are lost on process restart.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]Entry)}
}

func (r *MemoryRegistry) Create(userID string) (string, error) {
	if userID == "" {
		return "", ErrNoUser
	}
	token := uuid.NewString()
	r.mu.Lock()
	r.entries[token] = Entry{UserID: userID, CreatedAt: time.Now()}
	r.mu.Unlock()
	return token, nil
}

func (r *MemoryRegistry) UserID(token string) (string, bool) {
	e, ok := r.Entry(token)
	if !ok {
		return "", false
	}
	return e.UserID, true
}

// Entry exposes the raw entry for a token so decorators can inspect
// creation time without widening the Registry interface.
func (r *MemoryRegistry) Entry(token string) (Entry, bool) {
	if token == "" {
		return Entry{}, false
	}
	r.mu.RLock()
	e, ok := r.entries[token]
	r.mu.RUnlock()
	return e, ok
}

func (r *MemoryRegistry) Destroy(token string) bool {
	if token == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		return false
	}
	delete(r.entries, token)
	return true
}
