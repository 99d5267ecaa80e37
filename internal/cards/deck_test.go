package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck()
	assert.Len(t, deck, 52)

	seen := make(map[ID]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card id %s", c)
		seen[c] = true
	}
}

func TestShuffledWithSeedIsDeterministic(t *testing.T) {
	seed := int64(42)
	a := Shuffled(&seed)
	b := Shuffled(&seed)
	assert.Equal(t, a, b)
	assert.Len(t, a, 52)
}

func TestShuffledWithoutSeedIsAPermutation(t *testing.T) {
	deck := Shuffled(nil)
	assert.Len(t, deck, 52)

	baseline := make(map[ID]bool, 52)
	for _, c := range NewDeck() {
		baseline[c] = true
	}
	for _, c := range deck {
		assert.True(t, baseline[c])
	}
}
