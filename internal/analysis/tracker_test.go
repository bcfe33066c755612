package analysis

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerLastWriteWins(t *testing.T) {
	t.Parallel()

	var tr Tracker

	first := tr.Begin()
	assert.True(t, tr.Current(first))

	second := tr.Begin()
	assert.False(t, tr.Current(first), "earlier generation must be stale once a newer one begins")
	assert.True(t, tr.Current(second))

	third := tr.Begin()
	assert.False(t, tr.Current(first))
	assert.False(t, tr.Current(second))
	assert.True(t, tr.Current(third))
}

func TestTrackerConcurrentBegin(t *testing.T) {
	t.Parallel()

	var tr Tracker
	const n = 64

	generations := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			generations[i] = tr.Begin()
		}(i)
	}
	wg.Wait()

	// Generations are unique, and exactly one of them is still current.
	seen := make(map[uint64]bool, n)
	current := 0
	for _, g := range generations {
		assert.False(t, seen[g], "duplicate generation %d", g)
		seen[g] = true
		if tr.Current(g) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}
