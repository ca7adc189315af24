package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceStartsAfterFloor(t *testing.T) {
	s := NewSequence(41)
	assert.Equal(t, uint64(42), s.Next())
	assert.Equal(t, uint64(43), s.Next())
	assert.Equal(t, uint64(43), s.Last())
}

func TestSequenceReserve(t *testing.T) {
	s := NewSequence(0)
	first := s.Reserve(5)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(6), s.Next())
}

func TestSequenceObserveOnlyRaises(t *testing.T) {
	s := NewSequence(10)
	s.Observe(5)
	assert.Equal(t, uint64(10), s.Last())
	s.Observe(100)
	assert.Equal(t, uint64(101), s.Next())
}

func TestSequenceConcurrentUnique(t *testing.T) {
	s := NewSequence(0)
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, s.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), s.Last())
}
