package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolStatsConcurrentObserve(t *testing.T) {
	var s poolStats
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.observe(10)
			}
		}()
	}
	wg.Wait()

	// With a constant input the EMA is a fixed point: no update may be lost
	// and no interleaving may move the average off the input value.
	snap := s.snapshot()
	require.Equal(t, int64(800), snap.TasksDone)
	require.Equal(t, int64(10), snap.AvgTaskMs)
}
