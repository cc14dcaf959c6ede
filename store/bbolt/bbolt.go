// Package bbolt provides a BBolt-backed credential and session store.
package bbolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/gatehouse/store"
)

var (
	bucketUsers    = []byte("users")
	bucketEmails   = []byte("emails")   // email -> user ID
	bucketSessions = []byte("sessions") // token -> SessionRecord
	bucketTokens   = []byte("tokens")   // "session:<tok>" / "reset:<tok>" -> user ID
)

// Store implements store.UserStore and store.SessionStore backed by a
// BBolt database. Records survive process restarts.
type Store struct {
	db *bbolt.DB
}

var (
	_ store.UserStore    = (*Store)(nil)
	_ store.SessionStore = (*Store)(nil)
)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketEmails, bucketSessions, bucketTokens} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("initializing buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db)
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func tokenKey(kind, token string) []byte {
	return []byte(kind + ":" + token)
}

func (s *Store) Insert(email string, hashedPassword []byte) (*store.User, error) {
	u := &store.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: append([]byte(nil), hashedPassword...),
		CreatedAt:      time.Now().UTC(),
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		emails := tx.Bucket(bucketEmails)
		if emails.Get([]byte(email)) != nil {
			return store.ErrAlreadyExists
		}
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketUsers).Put([]byte(u.ID), data); err != nil {
			return err
		}
		return emails.Put([]byte(email), []byte(u.ID))
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) FindBy(attr store.Attribute, value string) (*store.User, error) {
	var u store.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		id, err := s.resolveID(tx, attr, value)
		if err != nil {
			return err
		}
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// resolveID maps a lookup attribute to a user ID inside a read transaction.
func (s *Store) resolveID(tx *bbolt.Tx, attr store.Attribute, value string) (string, error) {
	if value == "" {
		return "", store.ErrNotFound
	}
	switch attr {
	case store.AttrID:
		return value, nil
	case store.AttrEmail:
		id := tx.Bucket(bucketEmails).Get([]byte(value))
		if id == nil {
			return "", store.ErrNotFound
		}
		return string(id), nil
	case store.AttrSessionToken:
		id := tx.Bucket(bucketTokens).Get(tokenKey("session", value))
		if id == nil {
			return "", store.ErrNotFound
		}
		return string(id), nil
	case store.AttrResetToken:
		id := tx.Bucket(bucketTokens).Get(tokenKey("reset", value))
		if id == nil {
			return "", store.ErrNotFound
		}
		return string(id), nil
	default:
		return "", store.ErrInvalidAttribute
	}
}

func (s *Store) Update(userID string, fields store.Fields) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		data := users.Get([]byte(userID))
		if data == nil {
			return store.ErrNotFound
		}
		var u store.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		tokens := tx.Bucket(bucketTokens)
		for attr, v := range fields {
			switch attr {
			case store.AttrSessionToken:
				tok, ok := v.(string)
				if !ok {
					return store.ErrInvalidAttribute
				}
				if u.SessionToken != "" {
					if err := tokens.Delete(tokenKey("session", u.SessionToken)); err != nil {
						return err
					}
				}
				if tok != "" {
					if err := tokens.Put(tokenKey("session", tok), []byte(u.ID)); err != nil {
						return err
					}
				}
				u.SessionToken = tok
			case store.AttrResetToken:
				tok, ok := v.(string)
				if !ok {
					return store.ErrInvalidAttribute
				}
				if u.ResetToken != "" {
					if err := tokens.Delete(tokenKey("reset", u.ResetToken)); err != nil {
						return err
					}
				}
				if tok != "" {
					if err := tokens.Put(tokenKey("reset", tok), []byte(u.ID)); err != nil {
						return err
					}
				}
				u.ResetToken = tok
			case store.AttrHashedPassword:
				hash, ok := v.([]byte)
				if !ok {
					return store.ErrInvalidAttribute
				}
				u.HashedPassword = append([]byte(nil), hash...)
			default:
				return store.ErrInvalidAttribute
			}
		}
		out, err := json.Marshal(&u)
		if err != nil {
			return err
		}
		return users.Put([]byte(u.ID), out)
	})
}

func (s *Store) PutSession(rec store.SessionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSessions).Put([]byte(rec.Token), data)
	})
}

func (s *Store) GetSession(token string) (store.SessionRecord, error) {
	var rec store.SessionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(token))
		if data == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return store.SessionRecord{}, err
	}
	return rec, nil
}

func (s *Store) DeleteSession(token string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b.Get([]byte(token)) == nil {
			return store.ErrNotFound
		}
		return b.Delete([]byte(token))
	})
}

func (s *Store) ListSessions() ([]string, error) {
	var tokens []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, _ []byte) error {
			tokens = append(tokens, string(k))
			return nil
		})
	})
	return tokens, err
}
