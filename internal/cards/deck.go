// Package cards builds and shuffles the standard 52-card deck used by the
// reference rules pack (spec §4.5). Card identity is borrowed from
// alcamerone/joker/hand's Suit and Rank enums — the teacher's own
// dependency, originally pulled in for poker hand evaluation — rather than
// hand-rolling a parallel suit/rank representation. Shuffling reuses the
// teacher's randSource.ConcurrencySafeSource, so the source stays safe to
// draw from even if it is shared between goroutines; each Shuffled call
// builds its own source, which is what makes a seeded shuffle reproducible.
package cards

import (
	"math/rand"

	"github.com/alcamerone/joker/hand"

	"github.com/boardgo/server/internal/randsource"
)

var allSuits = [4]hand.Suit{hand.Spades, hand.Hearts, hand.Diamonds, hand.Clubs}

var allRanks = [13]hand.Rank{
	hand.Two, hand.Three, hand.Four, hand.Five, hand.Six, hand.Seven,
	hand.Eight, hand.Nine, hand.Ten, hand.Jack, hand.Queen, hand.King, hand.Ace,
}

// ID is the wire-level card identifier referenced throughout spec §4.5,
// e.g. the cardId in PLAY_CARD's params.
type ID string

func id(r hand.Rank, s hand.Suit) ID {
	return ID(r.String() + s.String())
}

// NewDeck returns all 52 card identifiers in a fixed, unshuffled order
// (suit-major, rank-minor).
func NewDeck() []ID {
	deck := make([]ID, 0, len(allSuits)*len(allRanks))
	for _, s := range allSuits {
		for _, r := range allRanks {
			deck = append(deck, id(r, s))
		}
	}
	return deck
}

// Shuffled returns a freshly shuffled 52-card deck. When seed is non-nil,
// the shuffle is fully deterministic for a given *seed value (spec §4.5:
// "shuffled deterministically when a seed is supplied"); otherwise it uses
// process entropy.
func Shuffled(seed *int64) []ID {
	deck := NewDeck()
	var source rand.Source
	if seed != nil {
		source = randsource.New(*seed)
	} else {
		source = randsource.New(randsource.EntropySeed())
	}
	r := rand.New(source)
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
