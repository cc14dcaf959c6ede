package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmcleod/gatehouse/store"
)

const sweepInterval = 5 * time.Minute

// PersistentRegistry delegates token storage to a durable
// store.SessionStore, so sessions survive process restarts and expiry is
// enforced by record deletion. The persisted record is the only state;
// back-ends that expire records on their own (Redis TTLs) need no extra
// bookkeeping here.
type PersistentRegistry struct {
	sessions store.SessionStore
	ttl      time.Duration // <= 0: tokens never expire
	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ Registry = (*PersistentRegistry)(nil)

// NewPersistentRegistry creates a registry backed by the given session
// store. ttl <= 0 disables expiry. A background sweeper removes expired
// records; lookups do not depend on it.
func NewPersistentRegistry(sessions store.SessionStore, ttl time.Duration) *PersistentRegistry {
	r := &PersistentRegistry{
		sessions: sessions,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Close stops the background sweeper.
func (r *PersistentRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *PersistentRegistry) Create(userID string) (string, error) {
	if userID == "" {
		return "", ErrNoUser
	}
	rec := store.SessionRecord{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := r.sessions.PutSession(rec); err != nil {
		return "", err
	}
	return rec.Token, nil
}

func (r *PersistentRegistry) UserID(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	rec, err := r.sessions.GetSession(token)
	if err != nil {
		return "", false
	}
	if r.ttl <= 0 {
		return rec.UserID, true
	}
	if rec.CreatedAt.IsZero() || time.Since(rec.CreatedAt) > r.ttl {
		// Expired: the record is removed and the token stops resolving.
		_ = r.sessions.DeleteSession(token)
		return "", false
	}
	return rec.UserID, true
}

func (r *PersistentRegistry) Destroy(token string) bool {
	if token == "" {
		return false
	}
	return r.sessions.DeleteSession(token) == nil
}

// sweepLoop periodically removes expired session records from storage.
func (r *PersistentRegistry) sweepLoop() {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweepExpired()
		}
	}
}

func (r *PersistentRegistry) sweepExpired() {
	tokens, err := r.sessions.ListSessions()
	if err != nil {
		return
	}
	now := time.Now()
	for _, token := range tokens {
		rec, err := r.sessions.GetSession(token)
		if err != nil {
			continue
		}
		if rec.CreatedAt.IsZero() || now.Sub(rec.CreatedAt) > r.ttl {
			_ = r.sessions.DeleteSession(token)
		}
	}
}
