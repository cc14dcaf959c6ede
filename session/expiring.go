package session

import "time"

// ExpiringRegistry decorates a MemoryRegistry with a fixed time-to-live
// per token, computed at creation time. A ttl <= 0 disables expiry and
// the registry behaves exactly like its base.
//
// Expiry is lazy and read-only: an expired token resolves to nothing but
// the underlying entry is not removed. Destroy remains the only mutation.
type ExpiringRegistry struct {
	base *MemoryRegistry
	ttl  time.Duration
}

var _ Registry = (*ExpiringRegistry)(nil)

// NewExpiringRegistry wraps base with the given time-to-live.
func NewExpiringRegistry(base *MemoryRegistry, ttl time.Duration) *ExpiringRegistry {
	return &ExpiringRegistry{base: base, ttl: ttl}
}

func (r *ExpiringRegistry) Create(userID string) (string, error) {
	return r.base.Create(userID)
}

func (r *ExpiringRegistry) UserID(token string) (string, bool) {
	if r.ttl <= 0 {
		return r.base.UserID(token)
	}
	e, ok := r.base.Entry(token)
	if !ok {
		return "", false
	}
	if e.CreatedAt.IsZero() {
		return "", false
	}
	if time.Since(e.CreatedAt) > r.ttl {
		return "", false
	}
	return e.UserID, true
}

func (r *ExpiringRegistry) Destroy(token string) bool {
	return r.base.Destroy(token)
}
