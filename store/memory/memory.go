// Package memory provides thread-safe in-memory implementations of
// store.UserStore and store.SessionStore.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmcleod/gatehouse/store"
)

// Store is a thread-safe in-memory credential and session store.
// Suitable for testing, demos, and single-process use cases.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*store.User // keyed by user ID
	emails   map[string]string      // email -> user ID
	sessions map[string]store.SessionRecord
}

var (
	_ store.UserStore    = (*Store)(nil)
	_ store.SessionStore = (*Store)(nil)
)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*store.User),
		emails:   make(map[string]string),
		sessions: make(map[string]store.SessionRecord),
	}
}

func cloneUser(u *store.User) *store.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.HashedPassword = append([]byte(nil), u.HashedPassword...)
	return &cp
}

func (s *Store) Insert(email string, hashedPassword []byte) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return nil, store.ErrAlreadyExists
	}
	u := &store.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: append([]byte(nil), hashedPassword...),
		CreatedAt:      time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return cloneUser(u), nil
}

func (s *Store) FindBy(attr store.Attribute, value string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch attr {
	case store.AttrID:
		if u, ok := s.users[value]; ok {
			return cloneUser(u), nil
		}
	case store.AttrEmail:
		if id, ok := s.emails[value]; ok {
			return cloneUser(s.users[id]), nil
		}
	case store.AttrSessionToken:
		if value == "" {
			return nil, store.ErrNotFound
		}
		for _, u := range s.users {
			if u.SessionToken == value {
				return cloneUser(u), nil
			}
		}
	case store.AttrResetToken:
		if value == "" {
			return nil, store.ErrNotFound
		}
		for _, u := range s.users {
			if u.ResetToken == value {
				return cloneUser(u), nil
			}
		}
	default:
		return nil, store.ErrInvalidAttribute
	}
	return nil, store.ErrNotFound
}

func (s *Store) Update(userID string, fields store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	// Validate every field before touching the record so a bad field
	// leaves it unchanged, matching the transactional backends.
	apply := make([]func(*store.User), 0, len(fields))
	for attr, v := range fields {
		switch attr {
		case store.AttrSessionToken:
			tok, ok := v.(string)
			if !ok {
				return store.ErrInvalidAttribute
			}
			apply = append(apply, func(u *store.User) { u.SessionToken = tok })
		case store.AttrResetToken:
			tok, ok := v.(string)
			if !ok {
				return store.ErrInvalidAttribute
			}
			apply = append(apply, func(u *store.User) { u.ResetToken = tok })
		case store.AttrHashedPassword:
			hash, ok := v.([]byte)
			if !ok {
				return store.ErrInvalidAttribute
			}
			apply = append(apply, func(u *store.User) { u.HashedPassword = append([]byte(nil), hash...) })
		default:
			return store.ErrInvalidAttribute
		}
	}
	for _, fn := range apply {
		fn(u)
	}
	return nil
}

func (s *Store) PutSession(rec store.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.Token] = rec
	return nil
}

func (s *Store) GetSession(token string) (store.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[token]
	if !ok {
		return store.SessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *Store) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *Store) ListSessions() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := make([]string, 0, len(s.sessions))
	for t := range s.sessions {
		tokens = append(tokens, t)
	}
	return tokens, nil
}
