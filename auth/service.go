package auth

import (
	"errors"
	"fmt"

	"github.com/jmcleod/gatehouse/session"
	"github.com/jmcleod/gatehouse/store"
)

// Service ties the credential store, password hasher, and session
// registry together for registration, login, and logout.
type Service struct {
	users    store.UserStore
	sessions session.Registry
	hasher   *Hasher
}

// NewService creates a Service over the given collaborators.
func NewService(users store.UserStore, sessions session.Registry, hasher *Hasher) *Service {
	return &Service{users: users, sessions: sessions, hasher: hasher}
}

// Register creates a user record for email. A taken email fails with
// store.ErrAlreadyExists.
func (s *Service) Register(email, password string) (*store.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Insert(email, hash)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", email, err)
	}
	return user, nil
}

// ValidLogin reports whether the email/password pair matches a stored
// record. Unknown emails and wrong passwords are not distinguished.
func (s *Service) ValidLogin(email, password string) bool {
	user, err := s.users.FindBy(store.AttrEmail, email)
	if err != nil {
		return false
	}
	return s.hasher.Verify(user.HashedPassword, password)
}

// Login verifies credentials and issues a session token. The token is
// also mirrored onto the user record's session_token attribute; the
// registry map remains the authority and may hold several live tokens
// per user.
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.users.FindBy(store.AttrEmail, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(user.HashedPassword, password) {
		return "", ErrInvalidCredentials
	}
	token, err := s.sessions.Create(user.ID)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	if err := s.users.Update(user.ID, store.Fields{store.AttrSessionToken: token}); err != nil {
		s.sessions.Destroy(token)
		return "", fmt.Errorf("recording session token: %w", err)
	}
	return token, nil
}

// UserBySession resolves a session token to its user record.
func (s *Service) UserBySession(token string) (*store.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	userID, ok := s.sessions.UserID(token)
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.users.FindBy(store.AttrID, userID)
}

// Logout destroys the session for token and clears the session_token
// mirror on the owning user record. Returns true only if a live session
// existed.
func (s *Service) Logout(token string) bool {
	if token == "" {
		return false
	}
	userID, ok := s.sessions.UserID(token)
	destroyed := s.sessions.Destroy(token)
	if !ok {
		return destroyed
	}
	if user, err := s.users.FindBy(store.AttrID, userID); err == nil && user.SessionToken == token {
		_ = s.users.Update(user.ID, store.Fields{store.AttrSessionToken: ""})
	}
	return destroyed
}
