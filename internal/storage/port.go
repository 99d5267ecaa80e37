// Package storage defines the persistence port of spec §4.6: a minimal
// upsert/load/delete key/value contract over GameSessionState, keyed on
// sessionId. The port is optional — when the configured driver is "none"
// the server uses NopStore, and save errors everywhere are logged, never
// propagated into the action pipeline (spec §4.6, §7).
package storage

import (
	"context"

	"github.com/boardgo/server/internal/session"
)

// Store is the persistence port contract.
type Store interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Save(ctx context.Context, s *session.State) error
	Load(ctx context.Context, sessionID string) (*session.State, error)
	Delete(ctx context.Context, sessionID string) error
}

// NopStore is the "persistence absent" implementation: every operation
// succeeds and does nothing, per spec §4.6 ("when absent, saves are
// skipped silently").
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) Open(context.Context) error  { return nil }
func (NopStore) Close(context.Context) error { return nil }
func (NopStore) Save(context.Context, *session.State) error { return nil }
func (NopStore) Load(context.Context, string) (*session.State, error) {
	return nil, nil
}
func (NopStore) Delete(context.Context, string) error { return nil }
