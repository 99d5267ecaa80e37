package simplecard

import (
	"fmt"

	"github.com/boardgo/server/internal/cards"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/session"
)

const (
	ActionPlayCard = "PLAY_CARD"
	ActionDrawCard = "DRAW_CARD"
	ActionEndTurn  = "END_TURN"
)

// Pack is the reference GamePackRules implementation (spec §4.5).
type Pack struct {
	HandSize int
	MaxRounds int
	// Seed, when non-nil, makes the initial shuffle deterministic —
	// primarily for tests (spec §4.5's Random(seed)).
	Seed *int64
}

// New constructs a Pack with the spec's defaults.
func New() *Pack {
	return &Pack{HandSize: DefaultHandSize, MaxRounds: DefaultMaxRounds}
}

// WithSeed returns a copy of p that shuffles deterministically from seed.
func (p *Pack) WithSeed(seed int64) *Pack {
	clone := *p
	clone.Seed = &seed
	return &clone
}

var _ rules.GamePackRules = (*Pack)(nil)

// PackID implements rules.GamePackRules.
func (p *Pack) PackID() string { return PackID }

// CreateInitialGameState implements rules.GamePackRules.
func (p *Pack) CreateInitialGameState(s *session.State) *session.State {
	handSize := p.HandSize
	if handSize <= 0 {
		handSize = DefaultHandSize
	}

	deck := cards.Shuffled(p.Seed)
	hands := make(map[string][]cards.ID, len(s.PlayerOrder))
	scores := make(map[string]int, len(s.PlayerOrder))
	for _, playerID := range s.PlayerOrder {
		hands[playerID] = append([]cards.ID(nil), deck[:handSize]...)
		deck = deck[handSize:]
		scores[playerID] = 0
	}

	next := s.Clone()
	next.Phase = session.PhaseInGame
	next.GameState = &session.GameState{
		GameID:         s.SessionID,
		Turn:           1,
		ActivePlayerID: s.PlayerOrder[0],
		Data: Data{
			Hands:       hands,
			Deck:        deck,
			DiscardPile: []cards.ID{},
			Scores:      scores,
		},
	}
	next.TurnState = &session.TurnState{
		Round:               1,
		TurnIndex:           0,
		ActivePlayerID:      s.PlayerOrder[0],
		Step:                session.StepMain,
		ActionCountThisTurn: 0,
	}
	next = next.AppendLog(session.LogEntry{
		EventType:   "GAME_START",
		Description: fmt.Sprintf("game started with %d players", len(s.PlayerOrder)),
	})
	return next.BumpVersion()
}

func dataOf(s *session.State) Data {
	return s.GameState.Data.(Data)
}

// GetAllowedActions implements rules.GamePackRules.
func (p *Pack) GetAllowedActions(s *session.State, playerID string) []rules.AllowedAction {
	if s.Phase != session.PhaseInGame || s.TurnState == nil || s.TurnState.ActivePlayerID != playerID {
		return nil
	}
	data := dataOf(s)
	actions := make([]rules.AllowedAction, 0, 3)
	for _, cardID := range data.Hands[playerID] {
		actions = append(actions, rules.AllowedAction{
			ActionType: ActionPlayCard,
			Label:      fmt.Sprintf("Play %s", cardID),
			Params:     map[string]interface{}{"cardId": string(cardID)},
		})
	}
	if len(data.Deck) > 0 {
		actions = append(actions, rules.AllowedAction{
			ActionType: ActionDrawCard,
			Label:      "Draw a card",
			Params:     map[string]interface{}{},
		})
	}
	actions = append(actions, rules.AllowedAction{
		ActionType: ActionEndTurn,
		Label:      "End turn",
		Params:     map[string]interface{}{},
	})
	return actions
}

// ApplyAction implements rules.GamePackRules. The caller guarantees action
// was present in GetAllowedActions(s, playerID) for this exact (s,
// playerID) pair.
func (p *Pack) ApplyAction(s *session.State, playerID string, action rules.Action) *session.State {
	switch action.ActionType {
	case ActionPlayCard:
		return p.applyPlayCard(s, playerID, action)
	case ActionDrawCard:
		return p.applyDrawCard(s, playerID)
	case ActionEndTurn:
		return p.applyEndTurn(s, playerID)
	default:
		return s
	}
}

func (p *Pack) applyPlayCard(s *session.State, playerID string, action rules.Action) *session.State {
	cardID, _ := action.Data["cardId"].(string)
	data := dataOf(s).clone()

	hand, removed := removeCard(data.Hands[playerID], cards.ID(cardID))
	if !removed {
		return s
	}
	data.Hands[playerID] = hand
	data.DiscardPile = append(data.DiscardPile, cards.ID(cardID))
	data.Scores[playerID]++

	next := s.Clone()
	next.GameState = next.GameState.Clone()
	next.GameState.Data = data
	next.TurnState = next.TurnState.Clone()
	next.TurnState.ActionCountThisTurn++
	next = next.AppendLog(session.LogEntry{
		EventType:   "PLAY_CARD",
		Description: fmt.Sprintf("%s played %s", playerID, cardID),
	})
	return next.BumpVersion()
}

func (p *Pack) applyDrawCard(s *session.State, playerID string) *session.State {
	data := dataOf(s).clone()
	if len(data.Deck) == 0 {
		return s
	}
	drawn := data.Deck[0]
	data.Deck = data.Deck[1:]
	data.Hands[playerID] = append(data.Hands[playerID], drawn)

	next := s.Clone()
	next.GameState = next.GameState.Clone()
	next.GameState.Data = data
	next.TurnState = next.TurnState.Clone()
	next.TurnState.ActionCountThisTurn++
	next = next.AppendLog(session.LogEntry{
		EventType:   "DRAW_CARD",
		Description: fmt.Sprintf("%s drew a card", playerID),
	})
	return next.BumpVersion()
}

func (p *Pack) applyEndTurn(s *session.State, playerID string) *session.State {
	next := s.Clone()
	next.TurnState = next.TurnState.Clone()

	nextIndex := (next.TurnState.TurnIndex + 1) % len(s.PlayerOrder)
	if nextIndex == 0 {
		next.TurnState.Round++
	}
	next.TurnState.TurnIndex = nextIndex
	next.TurnState.ActivePlayerID = s.PlayerOrder[nextIndex]
	next.TurnState.ActionCountThisTurn = 0

	next.GameState = next.GameState.Clone()
	next.GameState.ActivePlayerID = next.TurnState.ActivePlayerID
	next.GameState.Turn++

	next = next.AppendLog(session.LogEntry{
		EventType:   "END_TURN",
		Description: fmt.Sprintf("%s ended their turn", playerID),
	})
	return next.BumpVersion()
}

// CheckGameEnd implements rules.GamePackRules: ended iff the deck is empty
// or the round counter exceeds MaxRounds (spec §4.5).
func (p *Pack) CheckGameEnd(s *session.State) rules.EndResult {
	if s.Phase != session.PhaseInGame {
		return rules.EndResult{}
	}
	maxRounds := p.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	data := dataOf(s)
	ended := len(data.Deck) == 0 || (s.TurnState != nil && s.TurnState.Round > maxRounds)
	if !ended {
		return rules.EndResult{}
	}

	maxScore := -1
	for _, score := range data.Scores {
		if score > maxScore {
			maxScore = score
		}
	}
	winners := make([]string, 0)
	for _, playerID := range s.PlayerOrder {
		if data.Scores[playerID] == maxScore {
			winners = append(winners, playerID)
		}
	}
	return rules.EndResult{Ended: true, WinnerIDs: winners}
}

// BuildBoardView implements rules.GamePackRules.
func (p *Pack) BuildBoardView(s *session.State) interface{} {
	return p.buildBoardViewData(s, dataOf(s))
}

// BuildPlayerView implements rules.GamePackRules.
func (p *Pack) BuildPlayerView(s *session.State, playerID string) interface{} {
	return p.buildPlayerViewData(s, playerID, dataOf(s))
}
