// Package seats implements the SessionManager seat registry of spec §4.3:
// playerId ↔ (nickname, sink, ready, token, connected). It is grounded on
// alcamerone-pocket2s's mutex-guarded playerMap/room — the same "map of
// connections behind an RWMutex, broadcast fans out" shape, generalized
// from poker seats to spec seats with reconnect tokens. Send makes one
// delivery attempt per sink; retry with backoff lives in the websocket
// sink of internal/server.
package seats

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/protocol"
)

// Sink is the outbound delivery abstraction for one connected seat. The
// concrete implementation (a buffered per-connection channel backed by a
// websocket writer) lives in internal/server; SessionManager only ever
// sees this interface so it can be exercised without a real socket.
type Sink interface {
	Send(env *protocol.Envelope) error
}

// Seat is one tracked player slot (spec §3, PlayerSessionState plus the
// connection-layer fields that are SessionManager's own business: sink and
// reconnect token).
type Seat struct {
	PlayerID       string
	Nickname       string
	IsConnected    bool
	IsReady        bool
	ReconnectToken string
	sink           Sink
}

// Manager is the seat registry. All exported methods are safe for
// concurrent use, but spec §5 routes every call through the single session
// thread in practice — the mutex here is cheap insurance, not the primary
// concurrency mechanism.
type Manager struct {
	mu    sync.RWMutex
	seats map[string]*Seat
	log   *zap.Logger
}

// New constructs an empty Manager. A nil logger falls back to zap.NewNop().
func New(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		seats: make(map[string]*Seat),
		log:   logger,
	}
}

// Register replaces any existing seat for playerId, sets IsConnected=true
// and IsReady=false. It never mints a new reconnect token if one was
// already associated with playerId (spec §4.3).
func (m *Manager) Register(playerID, nickname string, sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, had := m.seats[playerID]
	token := ""
	if had {
		token = existing.ReconnectToken
	}
	m.seats[playerID] = &Seat{
		PlayerID:       playerID,
		Nickname:       nickname,
		IsConnected:    true,
		IsReady:        false,
		ReconnectToken: token,
		sink:           sink,
	}
	m.log.Info("seat registered", zap.String("playerId", playerID), zap.Bool("fresh", !had))
}

// Unregister drops the seat entirely (spec §4.3's explicit LEAVE teardown,
// invariant lifecycle rule: "a seat is destroyed only by explicit LEAVE").
func (m *Manager) Unregister(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seats, playerID)
	m.log.Info("seat unregistered", zap.String("playerId", playerID))
}

// MarkDisconnected flips IsConnected to false and drops the sink, keeping
// everything else. No-op for an unknown playerId.
func (m *Manager) MarkDisconnected(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[playerID]
	if !ok {
		return
	}
	seat.IsConnected = false
	seat.sink = nil
}

// Reconnect flips IsConnected to true and attaches newSink. No-op for an
// unknown playerId.
func (m *Manager) Reconnect(playerID string, newSink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[playerID]
	if !ok {
		return
	}
	seat.IsConnected = true
	seat.sink = newSink
}

// Send delivers env to playerID's sink; a no-op unless the seat is
// currently connected.
func (m *Manager) Send(playerID string, env *protocol.Envelope) {
	m.mu.RLock()
	seat, ok := m.seats[playerID]
	m.mu.RUnlock()
	if !ok || !seat.IsConnected || seat.sink == nil {
		return
	}
	if err := seat.sink.Send(env); err != nil {
		m.log.Warn("send failed", zap.String("playerId", playerID), zap.Error(err))
	}
}

// Broadcast delivers env to every currently connected seat except
// excludePlayerID (pass "" to exclude nobody).
func (m *Manager) Broadcast(env *protocol.Envelope, excludePlayerID string) {
	m.mu.RLock()
	targets := make([]*Seat, 0, len(m.seats))
	for id, seat := range m.seats {
		if id == excludePlayerID || !seat.IsConnected || seat.sink == nil {
			continue
		}
		targets = append(targets, seat)
	}
	m.mu.RUnlock()

	for _, seat := range targets {
		if err := seat.sink.Send(env); err != nil {
			m.log.Warn("broadcast failed", zap.String("playerId", seat.PlayerID), zap.Error(err))
		}
	}
}

// SetReady sets the ready flag for playerID. No-op for an unknown playerId.
func (m *Manager) SetReady(playerID string, ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seat, ok := m.seats[playerID]; ok {
		seat.IsReady = ready
	}
}

// IsReady reports playerID's ready flag, false if unknown.
func (m *Manager) IsReady(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seat, ok := m.seats[playerID]
	return ok && seat.IsReady
}

// GetReconnectToken returns playerID's existing token, minting a
// uniformly-random UUIDv4 token on first call for that playerId if none
// exists yet (invariant T1).
func (m *Manager) GetReconnectToken(playerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[playerID]
	if !ok {
		return ""
	}
	if seat.ReconnectToken == "" {
		seat.ReconnectToken = uuid.NewString()
	}
	return seat.ReconnectToken
}

// FindPlayerByReconnectToken returns the playerId owning token, and
// whether it was found.
func (m *Manager) FindPlayerByReconnectToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, seat := range m.seats {
		if seat.ReconnectToken == token {
			return id, true
		}
	}
	return "", false
}

// IsReadyToStart reports true iff at least one connected seat exists and
// every connected seat has IsReady==true.
func (m *Manager) IsReadyToStart() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	anyConnected := false
	for _, seat := range m.seats {
		if !seat.IsConnected {
			continue
		}
		anyConnected = true
		if !seat.IsReady {
			return false
		}
	}
	return anyConnected
}

// ConnectedPlayerIDs returns the playerIds of all currently connected
// seats, sorted by playerId so the order (and hence the playerOrder built
// from it at game start) is deterministic.
func (m *Manager) ConnectedPlayerIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.seats))
	for id, seat := range m.seats {
		if seat.IsConnected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the seat for playerID, for callers (e.g. the
// server hydrating GameSessionState at game start) that need a read-only
// view without holding the manager's lock.
func (m *Manager) Snapshot(playerID string) (Seat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seat, ok := m.seats[playerID]
	if !ok {
		return Seat{}, false
	}
	return Seat{
		PlayerID:       seat.PlayerID,
		Nickname:       seat.Nickname,
		IsConnected:    seat.IsConnected,
		IsReady:        seat.IsReady,
		ReconnectToken: seat.ReconnectToken,
	}, true
}

// BuildLobbyState snapshots all seats (connected and disconnected) per
// spec §4.3.
func (m *Manager) BuildLobbyState() protocol.LobbyStatePayload {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]protocol.LobbyPlayer, 0, len(m.seats))
	anyConnected := false
	canStart := true
	for _, seat := range m.seats {
		players = append(players, protocol.LobbyPlayer{
			PlayerID:    seat.PlayerID,
			Nickname:    seat.Nickname,
			IsReady:     seat.IsReady,
			IsConnected: seat.IsConnected,
		})
		if seat.IsConnected {
			anyConnected = true
			if !seat.IsReady {
				canStart = false
			}
		}
	}
	return protocol.LobbyStatePayload{
		Players:  players,
		CanStart: anyConnected && canStart,
	}
}
