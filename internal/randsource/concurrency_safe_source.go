// Package randsource provides a concurrency-safe math/rand.Source, adapted
// from alcamerone-pocket2s's randSource.ConcurrencySafeSource. The
// reference rules pack shuffles a deck from the single session thread, so
// the mutex here is not load-bearing for the pipeline itself, but it keeps
// the source safe to share with tests that shuffle from multiple
// goroutines concurrently.
package randsource

import (
	"math/rand"
	"sync"
	"time"
)

// Source is a mutex-guarded math/rand.Source.
type Source struct {
	r *rand.Rand
	m sync.Mutex
}

// New constructs a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// EntropySeed returns a seed derived from the current time, for callers
// that did not request a deterministic shuffle.
func EntropySeed() int64 {
	return time.Now().UnixNano()
}

// Int63 implements math/rand.Source.
func (s *Source) Int63() int64 {
	s.m.Lock()
	defer s.m.Unlock()
	return s.r.Int63()
}

// Seed implements math/rand.Source.
func (s *Source) Seed(seed int64) {
	s.m.Lock()
	defer s.m.Unlock()
	s.r.Seed(seed)
}
