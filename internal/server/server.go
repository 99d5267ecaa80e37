// Package server wires the protocol, session, seats, idempotency, rules and
// storage packages into the running coordination server (spec §4.7, §5).
// It is grounded on alcamerone-pocket2s/server/exec/server/main.go: a single
// goroutine owns the authoritative state and serializes every mutation
// through one dispatch queue, exactly as the teacher's room owns its table
// and processes one handleMessageFromPlayer call at a time — generalized
// here from one hardcoded poker room to the spec's pluggable rules-pack
// session.
package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boardgo/server/internal/idempotency"
	"github.com/boardgo/server/internal/protocol"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/seats"
	"github.com/boardgo/server/internal/session"
	"github.com/boardgo/server/internal/storage"
)

// commandQueueSize bounds how many inbound frames/control calls may be
// waiting for the session thread before a caller's dispatch blocks.
const commandQueueSize = 256

// Server is the single coordination session described by spec §2: one
// server process hosts exactly one GameSessionState. All mutations to
// state and to the seat registry happen inside commands drained by run,
// the session thread of spec §5 — everything else (HTTP handlers, socket
// read loops, outbound writers) only ever calls dispatch.
type Server struct {
	log   *zap.Logger
	store storage.Store

	manager *seats.Manager
	idem    *idempotency.Cache

	packs      map[string]rules.GamePackRules
	defaultPackID string

	commands chan func()

	// session-thread-owned; never touched outside a dispatched command.
	state      *session.State
	activePack rules.GamePackRules
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithStore overrides the persistence backend (default storage.NopStore{}).
func WithStore(store storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithIdempotencyCapacity overrides the idempotency cache's bound.
func WithIdempotencyCapacity(capacity int) Option {
	return func(s *Server) { s.idem = idempotency.New(capacity) }
}

// New constructs a Server for sessionID, registering packs by PackID() and
// selecting defaultPackID as the pack used when no packId is supplied to
// START_GAME (spec §4.7.6). A nil logger falls back to zap.NewNop().
func New(sessionID string, defaultPackID string, packs []rules.GamePackRules, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := make(map[string]rules.GamePackRules, len(packs))
	for _, p := range packs {
		registry[p.PackID()] = p
	}
	s := &Server{
		log:           logger,
		store:         storage.NopStore{},
		manager:       seats.New(logger),
		idem:          idempotency.New(idempotency.DefaultCapacity),
		packs:         registry,
		defaultPackID: defaultPackID,
		commands:      make(chan func(), commandQueueSize),
		state:         session.New(sessionID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drains the command queue until ctx is cancelled. It must be started
// exactly once, before any connection is accepted; every exported method
// that mutates server state routes through dispatch and therefore depends
// on this loop running.
func (s *Server) Run(ctx context.Context) {
	if err := s.store.Open(ctx); err != nil {
		s.log.Warn("persistence backend failed to open", zap.Error(err))
	}
	defer func() {
		if err := s.store.Close(ctx); err != nil {
			s.log.Warn("persistence backend failed to close", zap.Error(err))
		}
	}()
	for {
		select {
		case cmd := <-s.commands:
			cmd()
		case <-ctx.Done():
			return
		}
	}
}

// dispatch submits fn to run on the session thread and blocks the caller
// until the command queue accepts it or ctx is cancelled. fn itself runs
// asynchronously with respect to dispatch's return.
func (s *Server) dispatch(ctx context.Context, fn func()) {
	select {
	case s.commands <- fn:
	case <-ctx.Done():
	}
}

// dispatchSync runs fn on the session thread and waits for it to finish,
// for callers (HTTP handlers) that need a result back.
func (s *Server) dispatchSync(ctx context.Context, fn func()) {
	done := make(chan struct{})
	s.dispatch(ctx, func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Server) now() int64 {
	return time.Now().UnixMilli()
}

// persist fires the save off on its own goroutine (spec §5: "in-flight
// saves MUST NOT block the next action"; §4.7.7 step 10 is "fire-and-forget
// save"). state is a snapshot the session thread will never mutate again
// (every mutation replaces s.state with a new value rather than writing
// through the old one — invariant P1), so handing the pointer to another
// goroutine is safe without copying.
func (s *Server) persist(state *session.State) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Save(ctx, state); err != nil {
			s.log.Warn("failed to persist session state", zap.Error(err))
		}
	}()
}

// StartGame triggers the transition out of Lobby using packID (falling
// back to defaultPackID when empty), on the session thread. It is the
// entrypoint for the out-of-band admin control route (spec §6.8); the
// in-band START_GAME wire message reaches the same logic via handleEnvelope.
func (s *Server) StartGame(ctx context.Context, packID string) error {
	var startErr error
	s.dispatchSync(ctx, func() {
		startErr = s.startGameLocked(packID)
	})
	return startErr
}

func (s *Server) resolvePack(packID string) (rules.GamePackRules, error) {
	if packID == "" {
		packID = s.defaultPackID
	}
	pack, ok := s.packs[packID]
	if !ok {
		return nil, fmt.Errorf("unknown game pack %q", packID)
	}
	return pack, nil
}

func (s *Server) broadcastEnvelope(msgType protocol.MessageType, payload interface{}, excludePlayerID string) {
	env, err := protocol.Encode(msgType, payload, s.now())
	if err != nil {
		s.log.Warn("failed to encode broadcast envelope", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	s.manager.Broadcast(env, excludePlayerID)
}

func (s *Server) sendEnvelope(playerID string, msgType protocol.MessageType, payload interface{}) {
	env, err := protocol.Encode(msgType, payload, s.now())
	if err != nil {
		s.log.Warn("failed to encode envelope", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	s.manager.Send(playerID, env)
}
