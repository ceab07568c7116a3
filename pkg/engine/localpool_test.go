package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ALSM-PhD/Segframe/pkg/executor"
	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

func TestLocalPoolSubmitAfterShutdown(t *testing.T) {
	pool, err := NewLocalPool(LocalPoolConfig{
		PoolConfig: PoolConfig{Workers: 2},
	}, identityJitter())
	require.NoError(t, err)

	pool.Shutdown()
	pool.Shutdown() // idempotent

	_, err = pool.Submit(&wire.TaskRequest{Executor: "identity"}, nil)
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestLocalPoolRecyclesWorkers(t *testing.T) {
	var mu sync.Mutex
	var inits []int
	pool, err := NewLocalPool(LocalPoolConfig{
		PoolConfig: PoolConfig{Workers: 1, Devices: 2, RecycleAfter: 2},
		Initializer: func(device int) error {
			mu.Lock()
			inits = append(inits, device)
			mu.Unlock()
			return nil
		},
	}, identityJitter())
	require.NoError(t, err)

	handles := make([]*Handle, 0, 6)
	for i := 0; i < 6; i++ {
		h, err := pool.Submit(&wire.TaskRequest{TaskID: uint64(i), Executor: "identity"}, nil)
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		_, err := h.Get()
		require.NoError(t, err)
	}
	pool.Shutdown()

	require.Equal(t, int64(3), pool.Stats().Recycles)
	require.Equal(t, int64(6), pool.Stats().TasksDone)

	mu.Lock()
	defer mu.Unlock()
	// Startup init plus one re-init per recycle, always on the slot's device.
	require.Equal(t, []int{0, 0, 0, 0}, inits)
}

func TestLocalPoolDeadSlotAfterReinitFailure(t *testing.T) {
	boom := errors.New("device wedged")
	calls := 0
	pool, err := NewLocalPool(LocalPoolConfig{
		PoolConfig: PoolConfig{Workers: 1, Devices: 1, RecycleAfter: 1},
		Initializer: func(device int) error {
			calls++
			if calls > 1 {
				return boom
			}
			return nil
		},
	}, identityJitter())
	require.NoError(t, err)
	defer pool.Shutdown()

	first, err := pool.Submit(&wire.TaskRequest{TaskID: 0, Executor: "identity"}, nil)
	require.NoError(t, err)
	second, err := pool.Submit(&wire.TaskRequest{TaskID: 1, Executor: "identity"}, nil)
	require.NoError(t, err)

	_, err = first.Get()
	require.NoError(t, err)

	// The recycle after the first task re-runs the initializer; its failure
	// kills the slot, and every task the dead slot claims is lost.
	_, err = second.Get()
	var lost *ProcLostError
	require.ErrorAs(t, err, &lost)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, lost.Slot)
}

func TestLocalPoolUnknownExecutor(t *testing.T) {
	pool, err := NewLocalPool(LocalPoolConfig{
		PoolConfig: PoolConfig{Workers: 1},
	}, identityJitter())
	require.NoError(t, err)
	defer pool.Shutdown()

	h, err := pool.Submit(&wire.TaskRequest{Executor: "no-such"}, nil)
	require.NoError(t, err)
	_, err = h.Get()
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
}

func TestLocalPoolInitializerFailure(t *testing.T) {
	boom := errors.New("device busy")
	_, err := NewLocalPool(LocalPoolConfig{
		PoolConfig:  PoolConfig{Workers: 2, Devices: 2},
		Initializer: func(device int) error { return boom },
	}, identityJitter())
	require.ErrorIs(t, err, boom)
}

func TestLocalPoolValidation(t *testing.T) {
	_, err := NewLocalPool(LocalPoolConfig{PoolConfig: PoolConfig{Workers: 0}}, identityJitter())
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)

	_, err = NewLocalPool(LocalPoolConfig{PoolConfig: PoolConfig{Workers: 2}})
	require.ErrorAs(t, err, &cerr)

	_, err = NewLocalPool(LocalPoolConfig{PoolConfig: PoolConfig{Workers: 2, Devices: -1}}, identityJitter())
	require.ErrorAs(t, err, &cerr)
}

func TestExecutorFuncAdapter(t *testing.T) {
	f := executor.Func{
		FuncName: "echo",
		Fn: func(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error) {
			return []wire.Bucket{{Present: true, Items: req.Data}}, nil
		},
	}
	require.Equal(t, "echo", f.Name())
	buckets, err := f.ExecuteChunk(context.Background(), &wire.TaskRequest{Data: payloads(3)})
	require.NoError(t, err)
	require.Len(t, buckets[0].Items, 3)
}
