package monitor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sink adapts a Broadcaster to the engine's progress-sink contract. Advance
// only stores the counter; a ticker goroutine owns the actual pushes, so the
// coordinator's critical path never waits on a slow client.
type Sink struct {
	b        *Broadcaster
	interval time.Duration

	mu        sync.Mutex
	label     string
	total     int
	completed atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewSink(b *Broadcaster, interval time.Duration) *Sink {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Sink{b: b, interval: interval}
}

func (s *Sink) Begin(label string, total int) {
	s.mu.Lock()
	s.label, s.total = label, total
	s.mu.Unlock()
	s.completed.Store(0)
	s.stopCh = make(chan struct{})

	s.b.Broadcast(s.state(true))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.b.Broadcast(s.state(true))
			}
		}
	}()
}

func (s *Sink) Advance(completed int) {
	s.completed.Store(int64(completed))
}

func (s *Sink) End() {
	close(s.stopCh)
	s.wg.Wait()
	s.b.Broadcast(s.state(false))
}

func (s *Sink) state(running bool) *RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &RunState{
		Label:     s.label,
		Total:     s.total,
		Completed: int(s.completed.Load()),
		Running:   running,
	}
}
