// Package executor defines the work-callback contract the engine dispatches
// chunks to. Implementations are passed around as typed values: the worker
// binary hands them to worker.New, in-process pools receive them directly.
package executor

import (
	"context"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// Executor processes one chunk of a workload. Implementations must be safe
// to call sequentially from a single worker; the engine never issues two
// concurrent calls to the same worker slot.
type Executor interface {
	// ExecuteChunk runs the work callback on req.Data (and req.Labels in
	// accelerator mode) and returns one bucket per output dimension.
	ExecuteChunk(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error)

	// Name identifies the executor in task requests and logs.
	Name() string
}

// DeviceBinder is implemented by executors that need a per-process device
// binding. Bind runs once at worker startup (and again after a recycle, with
// the same device id) before any task is executed.
type DeviceBinder interface {
	Bind(device int) error
}

// Func adapts a plain function into an Executor.
type Func struct {
	FuncName string
	Fn       func(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error)
}

func (f Func) Name() string { return f.FuncName }

func (f Func) ExecuteChunk(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error) {
	return f.Fn(ctx, req)
}
