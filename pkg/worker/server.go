// Package worker is the process-side half of the engine: a small gRPC
// service that executes chunk tasks with the executors its binary was built
// with, one task at a time, until the coordinator recycles or releases it.
package worker

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ALSM-PhD/Segframe/pkg/config"
	"github.com/ALSM-PhD/Segframe/pkg/executor"
	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// Worker serves the task service for one pool slot.
type Worker struct {
	cfg   *config.Config
	execs map[string]executor.Executor

	started   time.Time
	tasksDone atomic.Int64
	busyNs    atomic.Int64
}

// New builds a worker from typed executor values. If the process was given a
// device slot, every executor that supports binding is bound exactly once,
// before any task can arrive.
func New(cfg *config.Config, execs ...executor.Executor) (*Worker, error) {
	w := &Worker{
		cfg:     cfg,
		execs:   make(map[string]executor.Executor, len(execs)),
		started: time.Now(),
	}
	for _, e := range execs {
		w.execs[e.Name()] = e
		if b, ok := e.(executor.DeviceBinder); ok && cfg.WorkerDevice >= 0 {
			if err := b.Bind(cfg.WorkerDevice); err != nil {
				return nil, err
			}
			log.Printf("🔌 Executor %s bound to device %d", e.Name(), cfg.WorkerDevice)
		}
	}
	return w, nil
}

// RegisterGRPC registers the task service on the given server.
func (w *Worker) RegisterGRPC(s *grpc.Server) {
	wire.RegisterTaskServiceServer(s, w)
}

// Execute runs one chunk task. Callback failures come back as Internal
// status errors; the coordinator surfaces them on the task's handle.
func (w *Worker) Execute(ctx context.Context, req *wire.TaskRequest) (*wire.TaskResult, error) {
	exec, ok := w.execs[req.Executor]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown executor %q", req.Executor)
	}

	start := time.Now()
	buckets, err := exec.ExecuteChunk(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "executor %s: %v", req.Executor, err)
	}

	w.tasksDone.Add(1)
	w.busyNs.Add(elapsed.Nanoseconds())
	log.Printf("📦 Task %d done: items=%d elapsed=%v", req.TaskID, len(req.Data), elapsed)

	return &wire.TaskResult{
		TaskID:    req.TaskID,
		Buckets:   buckets,
		ElapsedNs: elapsed.Nanoseconds(),
		Slot:      int32(w.cfg.WorkerSlot),
		Device:    int32(w.cfg.WorkerDevice),
	}, nil
}

// Ping reports identity and readiness; the coordinator polls it right after
// spawning the process.
func (w *Worker) Ping(ctx context.Context, req *wire.PingRequest) (*wire.WorkerInfo, error) {
	return &wire.WorkerInfo{
		WorkerID:  w.cfg.WorkerID,
		Slot:      int32(w.cfg.WorkerSlot),
		Device:    int32(w.cfg.WorkerDevice),
		TasksDone: w.tasksDone.Load(),
	}, nil
}

// RegisterMetricsHTTP registers the /metrics and /health endpoints.
func (w *Worker) RegisterMetricsHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", w.serveMetrics)
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("OK"))
	})
}
