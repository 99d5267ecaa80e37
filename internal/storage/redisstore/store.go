// Package redisstore implements the storage.Store persistence port (spec
// §4.6) over Redis, as a lighter-weight alternative to postgresstore. It is
// grounded on akella44-iam-service/internal/repository/redis, which wraps
// a *redis.Client for similarly shaped key/value persistence.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/session"
)

const keyPrefix = "boardgo:session:"

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Store implements storage.Store over a Redis client. Sessions are not
// given a TTL: a stored session stays until Delete is called for it. The
// server never calls Delete itself, not even when a player LEAVEs.
type Store struct {
	client *redis.Client
	log    *zap.Logger
}

// New wraps an already-connected client.
func New(client *redis.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, log: logger}
}

// Connect opens a Redis client against addr.
func Connect(addr string, logger *zap.Logger) *Store {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return New(client, logger)
}

// Open pings the server to fail fast on misconfiguration.
func (s *Store) Open(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: open: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

// Save upserts state at key(sessionId) (spec §4.6).
func (s *Store) Save(ctx context.Context, state *session.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redisstore: marshal state: %w", err)
	}
	if err := s.client.Set(ctx, key(state.SessionID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: save %s: %w", state.SessionID, err)
	}
	return nil
}

// Load returns the stored state for sessionID, or (nil, nil) if absent.
func (s *Store) Load(ctx context.Context, sessionID string) (*session.State, error) {
	raw, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redisstore: load %s: %w", sessionID, err)
	}
	var state session.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the key for sessionID, if present.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", sessionID, err)
	}
	return nil
}
