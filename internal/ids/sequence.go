// Package ids issues monotonically increasing identifiers for agents,
// locations, worlds, and events. Sequences are safe for concurrent use and
// can be raised to a floor when state is restored from storage.
package ids

import "sync/atomic"

// Sequence hands out strictly increasing uint64 identifiers starting at 1.
type Sequence struct {
	last atomic.Uint64
}

// NewSequence returns a sequence whose first issued ID is floor+1.
func NewSequence(floor uint64) *Sequence {
	s := &Sequence{}
	s.last.Store(floor)
	return s
}

// Next returns the next identifier.
func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}

// Reserve claims n consecutive identifiers and returns the first one.
func (s *Sequence) Reserve(n uint64) uint64 {
	if n == 0 {
		return s.last.Load() + 1
	}
	end := s.last.Add(n)
	return end - n + 1
}

// Observe raises the sequence so that id is never issued again.
// Lower values are ignored.
func (s *Sequence) Observe(id uint64) {
	for {
		cur := s.last.Load()
		if id <= cur {
			return
		}
		if s.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

// Last returns the most recently issued identifier (0 if none).
func (s *Sequence) Last() uint64 {
	return s.last.Load()
}
