package engine

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func payloads(n int) [][]byte {
	data := make([][]byte, n)
	for i := range data {
		data[i] = []byte(strconv.Itoa(i))
	}
	return data
}

func TestPartitionCoverage(t *testing.T) {
	cases := []struct {
		n, chunkSize int
	}{
		{0, 1}, {1, 1}, {1, 10}, {10, 4}, {10, 10}, {10, 1},
		{100, 7}, {99, 100}, {57, 8},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d_s=%d", tc.n, tc.chunkSize), func(t *testing.T) {
			chunks, err := Partition(payloads(tc.n), tc.chunkSize)
			require.NoError(t, err)

			next := 0
			for i, c := range chunks {
				require.Equal(t, i, c.Index)
				require.Equal(t, next, c.Start, "chunks must not overlap or leave gaps")
				require.Greater(t, c.End, c.Start, "zero-length chunks must not be produced")
				require.Len(t, c.Data, c.End-c.Start)
				next = c.End
			}
			require.Equal(t, tc.n, next, "chunks must cover the whole workload")
		})
	}
}

func TestPartitionClipsFinalChunk(t *testing.T) {
	chunks, err := Partition(payloads(10), 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, 0, chunks[0].Start)
	require.Equal(t, 4, chunks[0].End)
	require.Equal(t, 4, chunks[1].Start)
	require.Equal(t, 8, chunks[1].End)
	require.Equal(t, 8, chunks[2].Start)
	require.Equal(t, 10, chunks[2].End)
}

func TestPartitionInvalidChunkSize(t *testing.T) {
	for _, s := range []int{0, -1} {
		_, err := Partition(payloads(10), s)
		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
	}
}

func TestPartitionDevices(t *testing.T) {
	t.Run("single device degenerates to one chunk", func(t *testing.T) {
		chunks, err := PartitionDevices(payloads(10), payloads(10), 1)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		require.Equal(t, 0, chunks[0].Start)
		require.Equal(t, 10, chunks[0].End)
		require.Len(t, chunks[0].Labels, 10)
	})

	t.Run("even split", func(t *testing.T) {
		chunks, err := PartitionDevices(payloads(12), payloads(12), 3)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			require.Equal(t, i*4, c.Start)
			require.Equal(t, (i+1)*4, c.End)
		}
	})

	t.Run("remainder gets a trailing chunk", func(t *testing.T) {
		chunks, err := PartitionDevices(payloads(10), payloads(10), 3)
		require.NoError(t, err)
		require.Len(t, chunks, 4)
		require.Equal(t, 9, chunks[3].Start)
		require.Equal(t, 10, chunks[3].End)
	})

	t.Run("coverage holds for awkward splits", func(t *testing.T) {
		for _, tc := range []struct{ n, d int }{{11, 4}, {3, 4}, {7, 2}, {1, 8}} {
			chunks, err := PartitionDevices(payloads(tc.n), payloads(tc.n), tc.d)
			require.NoError(t, err)
			next := 0
			for _, c := range chunks {
				require.Equal(t, next, c.Start)
				require.Greater(t, c.End, c.Start)
				next = c.End
			}
			require.Equal(t, tc.n, next, "n=%d d=%d", tc.n, tc.d)
		}
	})

	t.Run("mismatched pair lengths rejected", func(t *testing.T) {
		_, err := PartitionDevices(payloads(10), payloads(9), 2)
		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
	})
}
