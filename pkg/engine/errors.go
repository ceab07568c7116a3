// Package engine implements the chunked worker-pool execution engine: it
// partitions a workload into contiguous chunks, dispatches them to a bounded
// pool of long-lived worker processes (optionally pinned to accelerator
// devices), throttles submission, and reassembles per-chunk results into
// ordered output buckets. It is a fail-fast batch executor: no retries, no
// cancellation, no dynamic scaling.
package engine

import (
	"errors"
	"fmt"
)

// ErrPoolClosed is returned by Submit once Shutdown has begun.
var ErrPoolClosed = errors.New("engine: pool closed")

// ConfigError reports an invalid engine parameter, surfaced before any
// worker is spawned.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: invalid %s: %s", e.Param, e.Reason)
}

// ExecError reports a work callback failure inside a worker. The run aborts
// at the failing chunk's position; prior partial output is discarded.
type ExecError struct {
	Task int
	Slot int
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("engine: task %d failed on worker slot %d: %v", e.Task, e.Slot, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ProcLostError reports a worker process that died outside normal recycling.
// The affected task is not resubmitted.
type ProcLostError struct {
	Slot int
	Pid  int
	Err  error
}

func (e *ProcLostError) Error() string {
	return fmt.Sprintf("engine: worker slot %d (pid %d) lost: %v", e.Slot, e.Pid, e.Err)
}

func (e *ProcLostError) Unwrap() error { return e.Err }
