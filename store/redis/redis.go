// Package redis provides a Redis-backed store.SessionStore. Only session
// records live here; user records need attribute lookups that a plain
// key-value layout does not serve well.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmcleod/gatehouse/store"
)

const keyPrefix = "session:"

// Store implements store.SessionStore on a Redis client. When a TTL is
// configured Redis expires records on its own; the registry's lazy check
// still applies on top, so behavior matches the other backends.
type Store struct {
	client *redis.Client
	ttl    time.Duration // 0 = records never expire server-side
}

var _ store.SessionStore = (*Store)(nil)

// NewStore creates a Redis-backed session store. ttl <= 0 disables
// server-side expiry.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, ttl: ttl}
}

func key(token string) string {
	return keyPrefix + token
}

func (s *Store) PutSession(rec store.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}
	return s.client.Set(context.Background(), key(rec.Token), data, s.ttl).Err()
}

func (s *Store) GetSession(token string) (store.SessionRecord, error) {
	val, err := s.client.Get(context.Background(), key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.SessionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.SessionRecord{}, err
	}
	var rec store.SessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return store.SessionRecord{}, fmt.Errorf("unmarshaling session record: %w", err)
	}
	return rec, nil
}

func (s *Store) DeleteSession(token string) error {
	n, err := s.client.Del(context.Background(), key(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSessions() ([]string, error) {
	ctx := context.Background()
	var tokens []string
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		tokens = append(tokens, iter.Val()[len(keyPrefix):])
	}
	return tokens, iter.Err()
}
