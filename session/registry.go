// Package session maps opaque bearer tokens to user identities. The base
// registry is an in-memory map; decorators add a fixed time-to-live and
// durable storage while satisfying the same small interface.
package session

import (
	"errors"
	"time"
)

// ErrNoUser is returned by Create when no user ID is supplied.
var ErrNoUser = errors.New("session requires a user id")

// Registry abstracts session lifecycle so back-ends can be swapped at
// startup: in-memory (default), expiring, or persisted.
type Registry interface {
	// Create generates a fresh random token bound to userID. An empty
	// userID fails with ErrNoUser.
	Create(userID string) (string, error)
	// UserID resolves a token to its owner. Returns false for an empty,
	// unknown, or expired token.
	UserID(token string) (string, bool)
	// Destroy removes the session for token. Returns true only if a
	// live session existed; a second call on the same token is false.
	Destroy(token string) bool
}

// Entry holds the server-side state for one session token.
type Entry struct {
	UserID    string
	CreatedAt time.Time
}
