package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds all configuration for the engine runner and worker binaries.
type Config struct {
	// Worker process (set by the pool at spawn time)
	WorkerID     string
	WorkerSocket string
	WorkerSlot   int
	WorkerDevice int // -1 without device affinity
	MetricsPort  int // 0 disables the metrics endpoint

	// Engine
	WorkerBinary   string
	WorkerCount    int
	DeviceCount    int
	ChunkSize      int
	RecycleAfter   int
	MaxOutstanding int
	ExecutorName   string
	DashboardPort  int
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		WorkerID:     envStr("WORKER_ID", "worker-0"),
		WorkerSocket: envStr("WORKER_SOCKET", ""),
		WorkerSlot:   envInt("WORKER_SLOT", 0),
		WorkerDevice: envInt("WORKER_DEVICE", -1),
		MetricsPort:  envInt("METRICS_PORT", 0),

		WorkerBinary:   envStr("WORKER_BINARY", "segworker"),
		WorkerCount:    envInt("WORKER_COUNT", runtime.NumCPU()),
		DeviceCount:    envInt("DEVICE_COUNT", 0),
		ChunkSize:      envInt("CHUNK_SIZE", 64),
		RecycleAfter:   envInt("RECYCLE_AFTER", 50),
		MaxOutstanding: envInt("MAX_OUTSTANDING", 0),
		ExecutorName:   envStr("EXECUTOR", "simulation"),
		DashboardPort:  envInt("DASHBOARD_PORT", 8080),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
