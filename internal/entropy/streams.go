package entropy

import (
	"math/rand"
	"sync"

	"github.com/talgya/needs-world/internal/world"
)

// Streams hands out one deterministic random stream per world, derived
// from a base seed. A stream must only be used by the worker that owns
// its world for the current tick.
type Streams struct {
	seed int64

	mu      sync.Mutex
	streams map[world.WorldID]*rand.Rand
}

// NewStreams creates per-world streams. A zero seed picks one at random.
func NewStreams(seed int64) *Streams {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Streams{seed: seed, streams: make(map[world.WorldID]*rand.Rand)}
}

// For returns the stream of a world, creating it on first use.
func (s *Streams) For(id world.WorldID) *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.streams[id]
	if !ok {
		r = rand.New(rand.NewSource(s.seed ^ int64(id)*0x9E3779B9))
		s.streams[id] = r
	}
	return r
}
