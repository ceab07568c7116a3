package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// RunPhase is the lifecycle state of one engine invocation.
type RunPhase int32

const (
	PhaseCreated RunPhase = iota
	PhaseSubmitting
	PhaseDraining
	PhaseClosed
)

func (p RunPhase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDraining:
		return "draining"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// PoolFactory builds the pool for one run. The pool belongs to that run
// alone: created at its start, released at its end.
type PoolFactory func(ctx context.Context, cfg PoolConfig) (Pool, error)

// ProcessPool returns a factory spawning OS worker processes of the given
// binary for each run.
func ProcessPool(workerBinary string) PoolFactory {
	return func(ctx context.Context, cfg PoolConfig) (Pool, error) {
		return NewProcPool(ctx, ProcPoolConfig{PoolConfig: cfg, WorkerBinary: workerBinary})
	}
}

// RunConfig describes one engine invocation.
type RunConfig struct {
	// Executor names the work callback registered with the pool's workers.
	Executor string

	// Params is an opaque blob handed unchanged to every task of the run.
	Params []byte

	// OutputDim is how many parallel result buckets the callback produces.
	// Defaults to 1.
	OutputDim int

	// ChunkSize is the target chunk length (CPU mode).
	ChunkSize int

	// Workers is the pool's slot count (CPU mode; accelerator mode derives
	// it from Devices).
	Workers int

	// Devices is the accelerator count (accelerator mode).
	Devices int

	// RecycleAfter bounds tasks per worker process before replacement.
	RecycleAfter int

	// MaxOutstanding caps unresolved handles during submission. Zero means
	// Workers+1 when a progress sink is set, otherwise unthrottled. The
	// bound caps coordinator memory, not concurrent execution; it is
	// approximate by design.
	MaxOutstanding int

	// Label names the run in progress output and logs.
	Label string

	// Progress receives completion updates; nil disables tracking.
	Progress ProgressSink

	// NewPool builds the run's pool. Required.
	NewPool PoolFactory
}

func (c *RunConfig) validate() error {
	if c.Executor == "" {
		return &ConfigError{Param: "executor", Reason: "must be named"}
	}
	if c.OutputDim == 0 {
		c.OutputDim = 1
	}
	if c.OutputDim < 0 {
		return &ConfigError{Param: "output dim", Reason: "must be positive"}
	}
	if c.NewPool == nil {
		return &ConfigError{Param: "pool factory", Reason: "must be set"}
	}
	return nil
}

// Run executes the work callback over data in chunks of cfg.ChunkSize on a
// pool of cfg.Workers workers and returns the aggregated output buckets in
// workload order. Buckets absent from every chunk are dropped. The first
// worker error aborts the run; partial output is discarded but the pool is
// always released.
func Run(ctx context.Context, cfg RunConfig, data [][]byte) ([][][]byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		return nil, &ConfigError{Param: "worker count", Reason: "must be positive"}
	}
	chunks, err := Partition(data, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	return runChunks(ctx, cfg, chunks)
}

// RunDevices executes the accelerator-mode callback over the paired
// feature/label workload, one worker process per device, and returns the
// single flat result sequence in workload order. Devices <= 1 degenerates to
// one chunk on one worker with no device binding.
func RunDevices(ctx context.Context, cfg RunConfig, features, labels [][]byte) ([][]byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.OutputDim = 1
	if cfg.Workers <= 0 {
		cfg.Workers = cfg.Devices
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}
	}
	if cfg.Devices <= 1 {
		// One accelerator degenerates to sequential execution with no
		// device binding; the binding overhead buys nothing.
		cfg.Devices = 0
	}
	chunks, err := PartitionDevices(features, labels, cfg.Devices)
	if err != nil {
		return nil, err
	}
	buckets, err := runChunks(ctx, cfg, chunks)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, nil
	}
	return buckets[0], nil
}

// runChunks owns the whole run: pool acquisition, ordered submission with
// approximate backpressure, ordered aggregation, and release on every exit
// path.
func runChunks(ctx context.Context, cfg RunConfig, chunks []Chunk) ([][][]byte, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	rc := newRunContext(cfg.Label, len(chunks), cfg.Progress)
	rc.begin()
	defer rc.finish()

	pool, err := cfg.NewPool(ctx, PoolConfig{
		Workers:      cfg.Workers,
		Devices:      cfg.Devices,
		RecycleAfter: cfg.RecycleAfter,
	})
	if err != nil {
		return nil, err
	}
	defer pool.Shutdown()

	bound := cfg.MaxOutstanding
	if bound <= 0 {
		bound = pool.Workers() + 1
	}
	throttled := cfg.Progress != nil || cfg.MaxOutstanding > 0

	rc.advance(PhaseSubmitting)
	handles := make([]*Handle, 0, len(chunks))
	oldest := 0
	for i := range chunks {
		c := &chunks[i]
		h, err := pool.Submit(&wire.TaskRequest{
			TaskID:   uint64(c.Index),
			Executor: cfg.Executor,
			Start:    int64(c.Start),
			End:      int64(c.End),
			Data:     c.Data,
			Labels:   c.Labels,
			Params:   cfg.Params,
		}, rc.events)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
		// Approximate backpressure: once the outstanding window fills, park
		// on the oldest unresolved handle before submitting more.
		if throttled && len(handles)-oldest >= bound {
			handles[oldest].Wait()
			oldest++
		}
	}

	rc.advance(PhaseDraining)
	dim := cfg.OutputDim
	buckets := make([][][]byte, dim)
	present := make([]bool, dim)
	for _, h := range handles {
		// Submission order, not completion order: this is what keeps the
		// merged buckets aligned with the workload.
		res, err := h.Get()
		if err != nil {
			return nil, err
		}
		if len(res.Buckets) != dim {
			return nil, &ExecError{Task: h.Task(), Slot: int(res.Slot),
				Err: fmt.Errorf("callback returned %d buckets, want %d", len(res.Buckets), dim)}
		}
		for k := range res.Buckets {
			if !res.Buckets[k].Present {
				continue
			}
			present[k] = true
			buckets[k] = append(buckets[k], res.Buckets[k].Items...)
		}
	}

	pool.Shutdown()

	out := make([][][]byte, 0, dim)
	for k := range buckets {
		if present[k] {
			if buckets[k] == nil {
				buckets[k] = [][]byte{}
			}
			out = append(out, buckets[k])
		}
	}
	return out, nil
}

// runContext is the run-scoped coordinator state: the phase machine, the
// completion-event channel and the single progress consumer. Nothing here is
// shared across runs.
type runContext struct {
	label  string
	total  int
	phase  atomic.Int32
	sink   ProgressSink
	events chan int
	done   chan struct{}
	once   sync.Once
}

func newRunContext(label string, total int, sink ProgressSink) *runContext {
	rc := &runContext{label: label, total: total, sink: sink}
	if sink != nil {
		// Buffered for the whole run so resolutions never block on it.
		rc.events = make(chan int, total)
		rc.done = make(chan struct{})
	}
	return rc
}

func (rc *runContext) Phase() RunPhase {
	return RunPhase(rc.phase.Load())
}

func (rc *runContext) advance(to RunPhase) {
	// Forward-only; there is no way back and no cancelled state.
	for {
		cur := rc.phase.Load()
		if cur >= int32(to) {
			return
		}
		if rc.phase.CompareAndSwap(cur, int32(to)) {
			return
		}
	}
}

func (rc *runContext) begin() {
	if rc.sink == nil {
		return
	}
	rc.sink.Begin(rc.label, rc.total)
	go func() {
		defer close(rc.done)
		completed := 0
		for range rc.events {
			completed++
			rc.sink.Advance(completed)
		}
	}()
}

// finish moves the run to its terminal phase, closes the event channel and
// waits out the consumer. It runs on every exit path, so an aborted run still
// reaches CLOSED. Only safe once the pool is released, which the deferred
// ordering in runChunks guarantees.
func (rc *runContext) finish() {
	rc.once.Do(func() {
		rc.advance(PhaseClosed)
		if rc.sink == nil {
			return
		}
		close(rc.events)
		<-rc.done
		rc.sink.End()
	})
}
