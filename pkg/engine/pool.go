package engine

import (
	"sync/atomic"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// Pool is a fixed-capacity set of worker slots consuming tasks in FIFO
// order. Two implementations exist: ProcPool dispatches to OS worker
// processes over gRPC, LocalPool runs executors on in-process goroutines.
type Pool interface {
	// Submit enqueues one task without blocking and returns its handle.
	// When notify is non-nil the task's submission index is sent on it at
	// resolution time (completion order, not submission order); the channel
	// must be buffered for the whole run. Fails with ErrPoolClosed after
	// Shutdown has begun.
	Submit(req *wire.TaskRequest, notify chan<- int) (*Handle, error)

	// Shutdown stops intake, waits for all previously submitted tasks to
	// finish, then releases the worker slots. Idempotent; must run on every
	// exit path of a run.
	Shutdown()

	// Workers returns the pool's fixed slot count.
	Workers() int

	// Stats returns a snapshot of pool counters.
	Stats() PoolStats
}

// PoolConfig holds the knobs shared by both pool implementations.
type PoolConfig struct {
	// Workers is the fixed number of worker slots. Must be positive.
	Workers int

	// Devices is the accelerator count; slot i binds device i % Devices.
	// Zero means no device affinity.
	Devices int

	// RecycleAfter replaces a worker after that many completed tasks,
	// bounding per-process resource growth in long batch runs. Zero
	// disables recycling.
	RecycleAfter int
}

func (c PoolConfig) validate() error {
	if c.Workers <= 0 {
		return &ConfigError{Param: "worker count", Reason: "must be positive"}
	}
	if c.Devices < 0 {
		return &ConfigError{Param: "device count", Reason: "must not be negative"}
	}
	if c.RecycleAfter < 0 {
		return &ConfigError{Param: "recycle threshold", Reason: "must not be negative"}
	}
	return nil
}

// PoolStats is a point-in-time snapshot of a pool's counters.
type PoolStats struct {
	TasksDone int64
	Recycles  int64
	AvgTaskMs int64
}

// submit is the shared intake path of both pool implementations.
func submit(q *taskQueue, req *wire.TaskRequest, notify chan<- int) (*Handle, error) {
	h := newHandle(int(req.TaskID), notify)
	if err := q.Enqueue(&pendingTask{req: req, handle: h}); err != nil {
		return nil, err
	}
	return h, nil
}

// poolStats aggregates counters across worker slots.
type poolStats struct {
	tasksDone atomic.Int64
	recycles  atomic.Int64
	avgTaskMs atomic.Int64 // exponential moving average
}

func (s *poolStats) observe(elapsedMs int64) {
	s.tasksDone.Add(1)
	for {
		old := s.avgTaskMs.Load()
		// EMA with alpha=0.3
		next := elapsedMs
		if old != 0 {
			next = int64(float64(old)*0.7 + float64(elapsedMs)*0.3)
		}
		if s.avgTaskMs.CompareAndSwap(old, next) {
			return
		}
	}
}

func (s *poolStats) snapshot() PoolStats {
	return PoolStats{
		TasksDone: s.tasksDone.Load(),
		Recycles:  s.recycles.Load(),
		AvgTaskMs: s.avgTaskMs.Load(),
	}
}
