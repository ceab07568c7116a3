package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "worker-0", cfg.WorkerID)
	require.Equal(t, -1, cfg.WorkerDevice)
	require.Equal(t, 50, cfg.RecycleAfter)
	require.Equal(t, "simulation", cfg.ExecutorName)
	require.Positive(t, cfg.WorkerCount)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKER_ID", "worker-3")
	t.Setenv("WORKER_SOCKET", "/tmp/segworker-3.sock")
	t.Setenv("WORKER_SLOT", "3")
	t.Setenv("WORKER_DEVICE", "1")
	t.Setenv("RECYCLE_AFTER", "10")
	t.Setenv("MAX_OUTSTANDING", "not-a-number")

	cfg := Load()
	require.Equal(t, "worker-3", cfg.WorkerID)
	require.Equal(t, "/tmp/segworker-3.sock", cfg.WorkerSocket)
	require.Equal(t, 3, cfg.WorkerSlot)
	require.Equal(t, 1, cfg.WorkerDevice)
	require.Equal(t, 10, cfg.RecycleAfter)
	require.Equal(t, 0, cfg.MaxOutstanding, "unparseable values fall back to the default")
}
