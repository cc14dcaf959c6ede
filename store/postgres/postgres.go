// Package postgres implements store.UserStore and store.SessionStore
// backed by PostgreSQL.
//
// Users and sessions live in separate tables mirroring the key spaces of
// the BBolt and in-memory backends. Session and reset tokens are indexed
// columns on the users table, so token lookups stay single-query.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/gatehouse/store"
)

// pgUniqueViolation is the SQLSTATE code for a unique constraint breach.
const pgUniqueViolation = "23505"

// Store implements store.UserStore and store.SessionStore backed by a
// PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.UserStore    = (*Store)(nil)
	_ store.SessionStore = (*Store)(nil)
)

// NewStore returns a Store backed by the given pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Store.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ---------------------------------------------------------------------------
// UserStore implementation
// ---------------------------------------------------------------------------

func (s *Store) Insert(email string, hashedPassword []byte) (*store.User, error) {
	u := &store.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: append([]byte(nil), hashedPassword...),
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO users (id, email, hashed_password, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.HashedPassword, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, store.ErrAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) FindBy(attr store.Attribute, value string) (*store.User, error) {
	if value == "" {
		return nil, store.ErrNotFound
	}
	var column string
	switch attr {
	case store.AttrID:
		column = "id"
	case store.AttrEmail:
		column = "email"
	case store.AttrSessionToken:
		column = "session_token"
	case store.AttrResetToken:
		column = "reset_token"
	default:
		return nil, store.ErrInvalidAttribute
	}

	var u store.User
	err := s.pool.QueryRow(context.Background(),
		`SELECT id, email, hashed_password, session_token, reset_token, created_at
		 FROM users WHERE `+column+` = $1`,
		value).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.SessionToken, &u.ResetToken, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Update(userID string, fields store.Fields) error {
	tx, err := s.pool.Begin(context.Background())
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	var id string
	err = tx.QueryRow(context.Background(),
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`,
		userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	for attr, v := range fields {
		var column string
		var value any
		switch attr {
		case store.AttrSessionToken:
			tok, ok := v.(string)
			if !ok {
				return store.ErrInvalidAttribute
			}
			column, value = "session_token", tok
		case store.AttrResetToken:
			tok, ok := v.(string)
			if !ok {
				return store.ErrInvalidAttribute
			}
			column, value = "reset_token", tok
		case store.AttrHashedPassword:
			hash, ok := v.([]byte)
			if !ok {
				return store.ErrInvalidAttribute
			}
			column, value = "hashed_password", hash
		default:
			return store.ErrInvalidAttribute
		}
		if _, err := tx.Exec(context.Background(),
			`UPDATE users SET `+column+` = $1 WHERE id = $2`,
			value, userID); err != nil {
			return err
		}
	}
	return tx.Commit(context.Background())
}

// ---------------------------------------------------------------------------
// SessionStore implementation
// ---------------------------------------------------------------------------

func (s *Store) PutSession(rec store.SessionRecord) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO sessions (token, user_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE SET user_id = $2, created_at = $3`,
		rec.Token, rec.UserID, rec.CreatedAt)
	return err
}

func (s *Store) GetSession(token string) (store.SessionRecord, error) {
	var rec store.SessionRecord
	err := s.pool.QueryRow(context.Background(),
		`SELECT token, user_id, created_at FROM sessions WHERE token = $1`,
		token).Scan(&rec.Token, &rec.UserID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.SessionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.SessionRecord{}, err
	}
	return rec, nil
}

func (s *Store) DeleteSession(token string) error {
	tag, err := s.pool.Exec(context.Background(),
		`DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSessions() ([]string, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT token FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
