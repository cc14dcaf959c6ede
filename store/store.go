// Package store provides the storage abstraction layer for user credential
// and session records.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when inserting a user whose email is taken.
var ErrAlreadyExists = errors.New("user already exists")

// ErrInvalidAttribute is returned for an unrecognized attribute or field
// name. This indicates a programming error in the caller, not bad input.
var ErrInvalidAttribute = errors.New("invalid attribute")

// Attribute names a User field usable for lookups and updates.
type Attribute string

const (
	AttrID           Attribute = "id"
	AttrEmail        Attribute = "email"
	AttrSessionToken Attribute = "session_token"
	AttrResetToken   Attribute = "reset_token"
)

// User is a stored credential record. HashedPassword is the only password
// material ever persisted; the plaintext never reaches this layer.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword []byte    `json:"hashed_password"`
	SessionToken   string    `json:"session_token,omitempty"`
	ResetToken     string    `json:"reset_token,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Fields carries attribute updates for UserStore.Update. Only
// AttrSessionToken, AttrResetToken and a hashed password change are
// recognized; anything else fails with ErrInvalidAttribute.
type Fields map[Attribute]any

// UserStore defines the interface for user credential storage.
type UserStore interface {
	// Insert creates a user record. Email uniqueness is enforced here;
	// a duplicate email fails with ErrAlreadyExists.
	Insert(email string, hashedPassword []byte) (*User, error)
	// FindBy looks a user up by a single attribute. A miss is
	// ErrNotFound, distinct from any transient storage error.
	FindBy(attr Attribute, value string) (*User, error)
	// Update mutates the named fields of an existing user record.
	// Unknown field names fail with ErrInvalidAttribute.
	Update(userID string, fields Fields) error
}

// SessionRecord is a persisted session, stored separately from the user
// record so that expiry can be enforced by record deletion.
type SessionRecord struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore defines the interface for durable session records.
type SessionStore interface {
	PutSession(rec SessionRecord) error
	// GetSession returns ErrNotFound for an unknown token.
	GetSession(token string) (SessionRecord, error)
	// DeleteSession returns ErrNotFound if no record exists for token.
	DeleteSession(token string) error
	// ListSessions returns all live session tokens, for sweepers.
	ListSessions() ([]string, error)
}

// AttrHashedPassword is the Update field name for a password change. It is
// not a FindBy attribute: hashes are never lookup keys.
const AttrHashedPassword Attribute = "hashed_password"
