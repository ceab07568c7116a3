package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProcPoolValidation(t *testing.T) {
	var cerr *ConfigError

	_, err := NewProcPool(context.Background(), ProcPoolConfig{
		PoolConfig: PoolConfig{Workers: 0},
	})
	require.ErrorAs(t, err, &cerr)

	_, err = NewProcPool(context.Background(), ProcPoolConfig{
		PoolConfig: PoolConfig{Workers: 2},
	})
	require.ErrorAs(t, err, &cerr, "worker binary is required")

	_, err = NewProcPool(context.Background(), ProcPoolConfig{
		PoolConfig:   PoolConfig{Workers: 2, RecycleAfter: -1},
		WorkerBinary: "segworker",
	})
	require.ErrorAs(t, err, &cerr)
}

func TestNewProcPoolSpawnFailure(t *testing.T) {
	// A binary that cannot start must fail pool creation without leaving
	// any worker process or goroutine behind.
	_, err := NewProcPool(context.Background(), ProcPoolConfig{
		PoolConfig:   PoolConfig{Workers: 2},
		WorkerBinary: "/nonexistent/segworker",
		SocketDir:    t.TempDir(),
	})
	require.Error(t, err)
}

func TestNewProcPoolReadinessFailure(t *testing.T) {
	// A binary that starts but never serves its socket is a lost process,
	// whether it dies outright or the readiness deadline runs out.
	_, err := NewProcPool(context.Background(), ProcPoolConfig{
		PoolConfig:     PoolConfig{Workers: 1},
		WorkerBinary:   "/bin/sleep",
		SocketDir:      t.TempDir(),
		StartupTimeout: 300 * time.Millisecond,
	})
	var lost *ProcLostError
	require.ErrorAs(t, err, &lost)
	require.Equal(t, 0, lost.Slot)
}
