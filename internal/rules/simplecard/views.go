package simplecard

import (
	"github.com/boardgo/server/internal/cards"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/session"
)

// BoardView is the public snapshot broadcast to every connection (spec
// §4.5). It deliberately has no "hands" key — invariant H1.
type BoardView struct {
	Phase          session.Phase     `json:"phase"`
	Scores         map[string]int    `json:"scores"`
	TurnState      *session.TurnState `json:"turnState"`
	DeckRemaining  int               `json:"deckRemaining"`
	DiscardPile    []cards.ID        `json:"discardPile"`
	RecentLog      []session.LogEntry `json:"recentLog"`
	Version        int64             `json:"version"`
}

// PlayerView is the private snapshot sent to exactly one player (spec
// §4.5). Hand is the sole sanctioned container for that player's private
// state (invariant H1).
type PlayerView struct {
	Phase           session.Phase      `json:"phase"`
	PlayerID        string             `json:"playerId"`
	Hand            []cards.ID         `json:"hand"`
	Scores          map[string]int     `json:"scores"`
	TurnState       *session.TurnState `json:"turnState"`
	AllowedActions  []rules.AllowedAction `json:"allowedActions"`
	Version         int64              `json:"version"`
}

const (
	maxDiscardTail = 5
	maxRecentLog   = 10
)

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return append([]T(nil), s...)
	}
	return append([]T(nil), s[len(s)-n:]...)
}

func (p *Pack) buildBoardViewData(s *session.State, data Data) BoardView {
	return BoardView{
		Phase:         s.Phase,
		Scores:        data.Scores,
		TurnState:     s.TurnState,
		DeckRemaining: len(data.Deck),
		DiscardPile:   tail(data.DiscardPile, maxDiscardTail),
		RecentLog:     tail(s.Log, maxRecentLog),
		Version:       s.Version,
	}
}

func (p *Pack) buildPlayerViewData(s *session.State, playerID string, data Data) PlayerView {
	return PlayerView{
		Phase:          s.Phase,
		PlayerID:       playerID,
		Hand:           append([]cards.ID(nil), data.Hands[playerID]...),
		Scores:         data.Scores,
		TurnState:      s.TurnState,
		AllowedActions: p.GetAllowedActions(s, playerID),
		Version:        s.Version,
	}
}
