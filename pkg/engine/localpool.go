package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ALSM-PhD/Segframe/pkg/executor"
	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// LocalPoolConfig configures an in-process pool.
type LocalPoolConfig struct {
	PoolConfig

	// Initializer runs once per worker incarnation before it takes tasks,
	// receiving the slot's device id (-1 without affinity). It is re-run
	// with the same id when the slot recycles, so it must tolerate repeats.
	Initializer func(device int) error
}

// LocalPool satisfies the Pool contract with in-process worker goroutines
// executing typed Executor values directly. It keeps the same FIFO intake,
// device affinity, recycling and shutdown semantics as ProcPool, minus
// process isolation; CPU-bound transform steps and the engine's own tests
// use it to avoid spawn overhead.
type LocalPool struct {
	cfg   LocalPoolConfig
	execs map[string]executor.Executor
	queue *taskQueue
	wg    sync.WaitGroup
	once  sync.Once
	stats poolStats
}

// NewLocalPool starts cfg.Workers worker goroutines. Each consumes its
// device id from the affinity queue and runs the initializer before taking
// any task; an initializer failure fails pool construction.
func NewLocalPool(cfg LocalPoolConfig, execs ...executor.Executor) (*LocalPool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(execs) == 0 {
		return nil, &ConfigError{Param: "executors", Reason: "at least one required"}
	}

	p := &LocalPool{
		cfg:   cfg,
		execs: make(map[string]executor.Executor, len(execs)),
		queue: newTaskQueue(),
	}
	for _, e := range execs {
		p.execs[e.Name()] = e
	}

	devices := NewDeviceQueue(cfg.Devices, cfg.Workers)
	for slot := 0; slot < cfg.Workers; slot++ {
		device, ok := devices.Pop()
		if !ok {
			device = -1
		}
		if cfg.Initializer != nil {
			if err := cfg.Initializer(device); err != nil {
				p.queue.Close()
				p.wg.Wait()
				return nil, fmt.Errorf("initialize worker slot %d: %w", slot, err)
			}
		}
		p.wg.Add(1)
		go p.runSlot(slot, device)
	}
	return p, nil
}

// Submit enqueues one task. Non-blocking.
func (p *LocalPool) Submit(req *wire.TaskRequest, notify chan<- int) (*Handle, error) {
	return submit(p.queue, req, notify)
}

// Shutdown stops intake and waits for in-flight tasks. Idempotent.
func (p *LocalPool) Shutdown() {
	p.once.Do(func() {
		p.queue.Close()
		p.wg.Wait()
	})
}

func (p *LocalPool) Workers() int     { return p.cfg.Workers }
func (p *LocalPool) Stats() PoolStats { return p.stats.snapshot() }

func (p *LocalPool) runSlot(slot, device int) {
	defer p.wg.Done()
	var dead error
	tasksDone := 0
	for {
		t, ok := p.queue.Next()
		if !ok {
			return
		}
		if dead != nil {
			t.handle.resolve(nil, &ProcLostError{Slot: slot, Err: dead})
			continue
		}
		start := time.Now()
		res, err := p.execute(slot, device, t)
		if err == nil {
			p.stats.observe(time.Since(start).Milliseconds())
		}
		t.handle.resolve(res, err)
		tasksDone++
		if p.cfg.RecycleAfter > 0 && tasksDone >= p.cfg.RecycleAfter {
			p.stats.recycles.Add(1)
			tasksDone = 0
			if p.cfg.Initializer != nil {
				// Same device id: the binding is a property of the slot.
				if err := p.cfg.Initializer(device); err != nil {
					dead = fmt.Errorf("re-initialize: %w", err)
				}
			}
		}
	}
}

func (p *LocalPool) execute(slot, device int, t *pendingTask) (res *wire.TaskResult, err error) {
	exec, ok := p.execs[t.req.Executor]
	if !ok {
		return nil, &ExecError{Task: t.handle.Task(), Slot: slot,
			Err: fmt.Errorf("unknown executor %q", t.req.Executor)}
	}
	defer func() {
		// A panicking callback would take down the coordinator; contain it
		// the way a worker process crash is contained.
		if r := recover(); r != nil {
			res = nil
			err = &ExecError{Task: t.handle.Task(), Slot: slot,
				Err: fmt.Errorf("callback panic: %v", r)}
		}
	}()
	start := time.Now()
	buckets, err := exec.ExecuteChunk(context.Background(), t.req)
	if err != nil {
		return nil, &ExecError{Task: t.handle.Task(), Slot: slot, Err: err}
	}
	return &wire.TaskResult{
		TaskID:    t.req.TaskID,
		Buckets:   buckets,
		ElapsedNs: time.Since(start).Nanoseconds(),
		Slot:      int32(slot),
		Device:    int32(device),
	}, nil
}
