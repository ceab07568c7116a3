package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// ProcPoolConfig configures a pool of OS worker processes.
type ProcPoolConfig struct {
	PoolConfig

	// WorkerBinary is the worker executable spawned once per slot.
	WorkerBinary string

	// SocketDir holds the per-slot unix sockets. Defaults to os.TempDir().
	SocketDir string

	// StartupTimeout bounds how long a freshly spawned worker may take to
	// answer its readiness ping. Defaults to 10s.
	StartupTimeout time.Duration

	// Env is appended to each worker's environment.
	Env []string
}

// ProcPool runs every worker slot as a separate OS process serving the task
// gRPC service on its own unix socket. Process isolation means a crashing or
// hanging worker cannot corrupt the coordinator, and accelerator-bound
// workers each own exactly one device for their whole lifetime.
type ProcPool struct {
	cfg   ProcPoolConfig
	queue *taskQueue
	slots []*procSlot
	wg    sync.WaitGroup
	once  sync.Once
	stats poolStats
}

// procSlot is one fixed position in the worker roster. The slot outlives the
// processes that fill it: recycling replaces the process, never the slot, so
// the device binding (slot % devices) is stable.
type procSlot struct {
	index       int
	device      int // -1 without affinity
	incarnation int

	socket  string
	cmd     *exec.Cmd
	conn    *grpc.ClientConn
	client  wire.TaskServiceClient
	exited  chan struct{}
	waitErr error

	tasksDone int // since last recycle
}

// NewProcPool spawns cfg.Workers worker processes and waits for each to
// answer a readiness ping. On any startup failure every already-started
// process is torn down before the error is returned.
func NewProcPool(ctx context.Context, cfg ProcPoolConfig) (*ProcPool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.WorkerBinary == "" {
		return nil, &ConfigError{Param: "worker binary", Reason: "must be set"}
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = os.TempDir()
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 10 * time.Second
	}

	p := &ProcPool{
		cfg:   cfg,
		queue: newTaskQueue(),
		slots: make([]*procSlot, cfg.Workers),
	}

	devices := AssignDevices(cfg.Devices, cfg.Workers)
	for i := range p.slots {
		dev := -1
		if devices != nil {
			dev = devices[i]
		}
		p.slots[i] = &procSlot{index: i, device: dev}
	}

	for _, s := range p.slots {
		if err := p.spawn(ctx, s); err != nil {
			for _, started := range p.slots {
				if started.cmd != nil {
					p.stopProc(started)
				}
			}
			return nil, err
		}
	}

	for _, s := range p.slots {
		p.wg.Add(1)
		go p.runSlot(s)
	}
	log.Printf("⚙️  Worker pool up: workers=%d devices=%d recycle_after=%d",
		cfg.Workers, cfg.Devices, cfg.RecycleAfter)
	return p, nil
}

// Submit enqueues one task. Non-blocking; the queue is unbounded and the
// submitter applies its own backpressure.
func (p *ProcPool) Submit(req *wire.TaskRequest, notify chan<- int) (*Handle, error) {
	return submit(p.queue, req, notify)
}

// Shutdown stops intake, drains in-flight tasks and terminates every worker
// process. Safe to call more than once.
func (p *ProcPool) Shutdown() {
	p.once.Do(func() {
		p.queue.Close()
		p.wg.Wait()
		log.Printf("🛑 Worker pool released: tasks=%d recycles=%d",
			p.stats.tasksDone.Load(), p.stats.recycles.Load())
	})
}

func (p *ProcPool) Workers() int     { return p.cfg.Workers }
func (p *ProcPool) Stats() PoolStats { return p.stats.snapshot() }

func (p *ProcPool) runSlot(s *procSlot) {
	defer p.wg.Done()
	for {
		t, ok := p.queue.Next()
		if !ok {
			p.stopProc(s)
			return
		}
		start := time.Now()
		res, err := p.execute(s, t)
		if err == nil {
			p.stats.observe(time.Since(start).Milliseconds())
		}
		t.handle.resolve(res, err)
		s.tasksDone++
		if p.cfg.RecycleAfter > 0 && s.tasksDone >= p.cfg.RecycleAfter {
			p.recycle(s)
		}
	}
}

func (p *ProcPool) execute(s *procSlot, t *pendingTask) (*wire.TaskResult, error) {
	if s.client == nil {
		// Process was lost (or its replacement failed to start) earlier.
		return nil, &ProcLostError{Slot: s.index, Pid: s.pid(), Err: s.waitErr}
	}
	res, err := s.client.Execute(context.Background(), t.req)
	if err == nil {
		return res, nil
	}
	select {
	case <-s.exited:
		lost := &ProcLostError{Slot: s.index, Pid: s.pid(), Err: s.waitErr}
		p.abandon(s)
		return nil, lost
	default:
		return nil, &ExecError{Task: t.handle.Task(), Slot: s.index, Err: err}
	}
}

// spawn starts a fresh process for the slot and waits for readiness.
func (p *ProcPool) spawn(ctx context.Context, s *procSlot) error {
	s.incarnation++
	s.socket = filepath.Join(p.cfg.SocketDir,
		fmt.Sprintf("segworker-%d-%d-%d.sock", os.Getpid(), s.index, s.incarnation))
	os.Remove(s.socket)

	cmd := exec.Command(p.cfg.WorkerBinary)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("WORKER_ID=worker-%d", s.index),
		fmt.Sprintf("WORKER_SOCKET=%s", s.socket),
		fmt.Sprintf("WORKER_SLOT=%d", s.index),
		fmt.Sprintf("WORKER_DEVICE=%d", s.device),
	)
	cmd.Env = append(cmd.Env, p.cfg.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn worker slot %d: %w", s.index, err)
	}

	s.cmd = cmd
	s.exited = make(chan struct{})
	s.waitErr = nil
	exited := s.exited
	go func() {
		err := cmd.Wait()
		s.waitErr = err
		close(exited)
	}()

	conn, err := grpc.NewClient("unix://"+s.socket,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wire.Codec{})),
	)
	if err != nil {
		p.stopProc(s)
		return fmt.Errorf("dial worker slot %d: %w", s.index, err)
	}
	s.conn = conn
	s.client = wire.NewTaskServiceClient(conn)

	if err := p.awaitReady(ctx, s); err != nil {
		p.stopProc(s)
		return err
	}
	log.Printf("⚡ Worker slot %d up: pid=%d device=%d", s.index, s.pid(), s.device)
	return nil
}

// awaitReady pings the worker until it answers or the startup deadline hits.
func (p *ProcPool) awaitReady(ctx context.Context, s *procSlot) error {
	deadline := time.Now().Add(p.cfg.StartupTimeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		info, err := s.client.Ping(pingCtx, &wire.PingRequest{})
		cancel()
		if err == nil {
			if int(info.Device) != s.device {
				return &ProcLostError{Slot: s.index, Pid: s.pid(),
					Err: fmt.Errorf("worker bound device %d, want %d", info.Device, s.device)}
			}
			return nil
		}
		select {
		case <-s.exited:
			return &ProcLostError{Slot: s.index, Pid: s.pid(), Err: s.waitErr}
		default:
		}
		if time.Now().After(deadline) {
			return &ProcLostError{Slot: s.index, Pid: s.pid(),
				Err: fmt.Errorf("not ready after %v: %w", p.cfg.StartupTimeout, err)}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// recycle replaces the slot's process after the task threshold, re-binding
// the same device id. A replacement that fails to start leaves the slot dead;
// its remaining tasks fail with ProcLostError.
func (p *ProcPool) recycle(s *procSlot) {
	p.stopProc(s)
	p.stats.recycles.Add(1)
	s.tasksDone = 0
	if err := p.spawn(context.Background(), s); err != nil {
		log.Printf("❌ Worker slot %d recycle failed: %v", s.index, err)
		s.waitErr = err
		s.client = nil
	}
}

// abandon tears down the slot's connection after an unexpected process exit.
// The pool does not respawn: failed tasks are never resubmitted.
func (p *ProcPool) abandon(s *procSlot) {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.client = nil
	os.Remove(s.socket)
}

// stopProc terminates the slot's current process: TERM first, KILL if it
// does not exit within the grace window.
func (p *ProcPool) stopProc(s *procSlot) {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.client = nil
	if s.cmd == nil {
		return
	}
	select {
	case <-s.exited:
	default:
		s.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.exited:
		case <-time.After(5 * time.Second):
			s.cmd.Process.Kill()
			<-s.exited
		}
	}
	s.cmd = nil
	os.Remove(s.socket)
}

func (s *procSlot) pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}
