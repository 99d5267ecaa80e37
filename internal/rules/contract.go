// Package rules defines the GamePackRules contract (spec §4.4): the pure,
// time-blind, state-free boundary between session plumbing and game logic.
// It is grounded on LarryBui-ThirteenV4's domain/app/ports split — domain
// rules never touch transport, transport never touches rules directly.
package rules

import "github.com/boardgo/server/internal/session"

// AllowedAction is a pre-validated action the active player may submit
// verbatim (spec glossary).
type AllowedAction struct {
	ActionType string                 `json:"actionType"`
	Label      string                 `json:"label"`
	Params     map[string]interface{} `json:"params"`
}

// EndResult is the outcome of checking whether a game has ended.
type EndResult struct {
	Ended      bool     `json:"ended"`
	WinnerIDs  []string `json:"winnerIds"`
}

// Action is one player-submitted action, decoded from protocol.ActionPayload
// before it reaches a GamePackRules implementation.
type Action struct {
	ActionType string
	Data       map[string]interface{}
}

// GamePackRules is a capability bag of pure functions (spec §4.4). None of
// these may retain mutable state across calls. Shuffling is the one source
// of non-determinism: a pack configured with a seed shuffles
// deterministically, while an unseeded pack (e.g. simplecard.New() without
// WithSeed) seeds its shuffle from the clock inside CreateInitialGameState.
type GamePackRules interface {
	// PackID identifies this rules pack on the wire (spec §4.7.6 packId).
	PackID() string

	// CreateInitialGameState transitions a Lobby session into InGame,
	// populating GameState and a fresh TurnState, and bumps Version.
	CreateInitialGameState(s *session.State) *session.State

	// GetAllowedActions returns the empty sequence unless phase is InGame
	// and playerID is the active player.
	GetAllowedActions(s *session.State, playerID string) []AllowedAction

	// ApplyAction is pure: the caller guarantees action is in the allowed
	// list returned by GetAllowedActions for (s, playerID).
	ApplyAction(s *session.State, playerID string, action Action) *session.State

	// CheckGameEnd reports whether s's game has ended and, if so, who won.
	CheckGameEnd(s *session.State) EndResult

	// BuildBoardView must not carry any per-player private datum (H1).
	BuildBoardView(s *session.State) interface{}

	// BuildPlayerView must carry only playerID's private data plus data
	// already present in the board view (H1).
	BuildPlayerView(s *session.State, playerID string) interface{}
}
