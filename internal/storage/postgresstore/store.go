// Package postgresstore implements the storage.Store persistence port
// (spec §4.6) over PostgreSQL. It is grounded on
// akella44-iam-service/internal/repository/postgres: a Store wraps a
// *pgxpool.Pool, and queries are built with Masterminds/squirrel rather
// than hand-written SQL strings.
package postgresstore

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/session"
)

const tableName = "game_sessions"

// Querier is the subset of *pgxpool.Pool this store needs, so tests can
// substitute pgxmock.PgxPoolIface (spec §4.8.4).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements storage.Store over a Postgres table with one row per
// sessionId, the full GameSessionState serialized as jsonb.
type Store struct {
	pool    Querier
	builder sq.StatementBuilderType
	log     *zap.Logger
}

// New constructs a Store over an already-connected pool.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		log:     logger,
	}
}

// Connect opens a pgxpool against dsn and wraps it in a Store.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgresstore: create pool: %w", err)
	}
	return New(pool, logger), nil
}

// Open runs the idempotent schema migration for the session table.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+tableName+` (
			session_id TEXT PRIMARY KEY,
			state      JSONB NOT NULL,
			version    BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("postgresstore: open: %w", err)
	}
	return nil
}

// Close is a no-op; the pool's lifecycle is owned by whoever called Connect.
func (s *Store) Close(context.Context) error { return nil }

// Save upserts s, replacing on conflict (spec §4.6).
func (s *Store) Save(ctx context.Context, state *session.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("postgresstore: marshal state: %w", err)
	}

	query, args, err := s.builder.
		Insert(tableName).
		Columns("session_id", "state", "version").
		Values(state.SessionID, raw, state.Version).
		Suffix("ON CONFLICT (session_id) DO UPDATE SET state = EXCLUDED.state, version = EXCLUDED.version").
		ToSql()
	if err != nil {
		return fmt.Errorf("postgresstore: build save query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgresstore: save %s: %w", state.SessionID, err)
	}
	return nil
}

// Load returns the stored state for sessionID, or (nil, nil) if absent.
func (s *Store) Load(ctx context.Context, sessionID string) (*session.State, error) {
	query, args, err := s.builder.
		Select("state").
		From(tableName).
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgresstore: build load query: %w", err)
	}

	var raw []byte
	err = s.pool.QueryRow(ctx, query, args...).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("postgresstore: load %s: %w", sessionID, err)
	}

	var state session.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("postgresstore: unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the row for sessionID, if present.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	query, args, err := s.builder.
		Delete(tableName).
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgresstore: build delete query: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgresstore: delete %s: %w", sessionID, err)
	}
	return nil
}
