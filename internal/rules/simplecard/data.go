// Package simplecard is the reference GamePackRules implementation of
// spec §4.5: a shuffled 52-card deck, five-card hands, a discard pile, and
// per-player scores. It is the "shape, not rules doctrine" pack the spec
// asks for — illustrative, not competitively balanced.
package simplecard

import "github.com/boardgo/server/internal/cards"

// PackID is the wire packId for the reference rules pack (§4.7.6).
const PackID = "simple-card"

// DefaultHandSize is the configurable initial deal size (§4.5).
const DefaultHandSize = 5

// DefaultMaxRounds bounds the game length (§4.5's end condition).
const DefaultMaxRounds = 3

// Data is the concrete payload stored in session.GameState.Data for this
// pack (spec §9's "From dynamic maps to typed state").
type Data struct {
	Hands       map[string][]cards.ID `json:"hands"`
	Deck        []cards.ID            `json:"deck"`
	DiscardPile []cards.ID            `json:"discardPile"`
	Scores      map[string]int        `json:"scores"`
}

func (d Data) clone() Data {
	hands := make(map[string][]cards.ID, len(d.Hands))
	for id, hand := range d.Hands {
		hands[id] = append([]cards.ID(nil), hand...)
	}
	scores := make(map[string]int, len(d.Scores))
	for id, score := range d.Scores {
		scores[id] = score
	}
	return Data{
		Hands:       hands,
		Deck:        append([]cards.ID(nil), d.Deck...),
		DiscardPile: append([]cards.ID(nil), d.DiscardPile...),
		Scores:      scores,
	}
}

func removeCard(hand []cards.ID, card cards.ID) ([]cards.ID, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...), true
		}
	}
	return hand, false
}
