// Package session holds the value types that make up the authoritative
// GameSessionState state machine (spec §3). Every mutation returns a new
// instance rather than writing through the receiver (invariant P1); the
// only shared mutable field is the monotonically increasing Version
// (invariant V1), which every semantic mutation bumps exactly once.
package session

import "time"

// Step is the TurnState sub-phase within a single player's turn (spec §3).
type Step string

const (
	StepStart Step = "Start"
	StepMain  Step = "Main"
	StepEnd   Step = "End"
)

// PlayerSessionState is the per-seat view the session core tracks. It is
// hydrated from the SessionManager at game start (spec §4.7.6) and is
// otherwise a passive mirror — SessionManager remains the source of truth
// for connectivity/ready/token while the game is in the lobby.
type PlayerSessionState struct {
	PlayerID        string `json:"playerId"`
	Nickname        string `json:"nickname"`
	IsConnected     bool   `json:"isConnected"`
	IsReady         bool   `json:"isReady"`
	ReconnectToken  string `json:"reconnectToken"`
}

// TurnState tracks whose turn it is and where in the turn they are.
// Null (a nil *TurnState) in Lobby.
type TurnState struct {
	Round               int    `json:"round"`
	TurnIndex           int    `json:"turnIndex"`
	ActivePlayerID      string `json:"activePlayerId"`
	Step                Step   `json:"step"`
	ActionCountThisTurn int    `json:"actionCountThisTurn"`
}

// Clone returns a deep copy so callers can build a mutated TurnState
// without aliasing the original (invariant P1).
func (t *TurnState) Clone() *TurnState {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// GameState is the rules-pack-opaque game payload (spec §3). Data is owned
// entirely by the active GamePackRules implementation; the session core
// never inspects it.
type GameState struct {
	GameID         string      `json:"gameId"`
	Turn           int         `json:"turn"`
	ActivePlayerID string      `json:"activePlayerId"`
	Data           interface{} `json:"data"`
}

// Clone returns a shallow copy of the GameState wrapper. Data itself is
// rules-pack owned; rules packs are responsible for not aliasing it across
// calls to applyAction (they build a fresh Data value whenever an action
// changes it, and never write through a Data they were handed).
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}

// LogEntry is one bounded audit-log record (spec §3, invariant L1).
type LogEntry struct {
	EventType   string    `json:"eventType"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// MaxLogEntries is the bound on GameSessionState.Log (invariant L1).
const MaxLogEntries = 50

// State is the authoritative GameSessionState snapshot (spec §3).
type State struct {
	SessionID   string                         `json:"sessionId"`
	Phase       Phase                          `json:"phase"`
	Players     map[string]PlayerSessionState  `json:"players"`
	PlayerOrder []string                       `json:"playerOrder"`
	TurnState   *TurnState                     `json:"turnState"`
	GameState   *GameState                     `json:"gameState"`
	Log         []LogEntry                     `json:"log"`
	Version     int64                          `json:"version"`
}

// New creates a fresh Lobby-phase session with no players, version 0.
func New(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Phase:     PhaseLobby,
		Players:   map[string]PlayerSessionState{},
	}
}

// Clone returns a deep copy of s so callers can build a mutated State
// without aliasing the original's maps/slices (invariant P1).
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Players = make(map[string]PlayerSessionState, len(s.Players))
	for id, p := range s.Players {
		clone.Players[id] = p
	}
	clone.PlayerOrder = append([]string(nil), s.PlayerOrder...)
	clone.TurnState = s.TurnState.Clone()
	clone.GameState = s.GameState.Clone()
	clone.Log = append([]LogEntry(nil), s.Log...)
	return &clone
}

// WithPlayer returns a clone of s with players[p.PlayerID] replaced.
func (s *State) WithPlayer(p PlayerSessionState) *State {
	next := s.Clone()
	next.Players[p.PlayerID] = p
	return next
}

// WithoutPlayer returns a clone of s with playerID removed from Players.
func (s *State) WithoutPlayer(playerID string) *State {
	next := s.Clone()
	delete(next.Players, playerID)
	return next
}

// AppendLog returns a clone of s with entry appended and the log trimmed to
// MaxLogEntries by discarding the oldest entries on overflow (invariant L1).
func (s *State) AppendLog(entry LogEntry) *State {
	next := s.Clone()
	next.Log = append(next.Log, entry)
	if overflow := len(next.Log) - MaxLogEntries; overflow > 0 {
		next.Log = next.Log[overflow:]
	}
	return next
}

// BumpVersion returns a clone of s with Version incremented by one. Every
// operation that is a semantic mutation must call this exactly once
// (invariant V1); copyWith-style helpers above intentionally do not bump
// the version themselves so callers can batch several field replacements
// into a single observable transition.
func (s *State) BumpVersion() *State {
	next := s.Clone()
	next.Version++
	return next
}

// ActivePlayer returns the id of the player whose turn it is, or "" if
// TurnState is nil (i.e. Lobby). A Finished session keeps its last
// TurnState, so this still names the last active player there.
func (s *State) ActivePlayer() string {
	if s.TurnState == nil {
		return ""
	}
	return s.TurnState.ActivePlayerID
}
