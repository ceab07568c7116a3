package engine

import (
	"sync"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// pendingTask pairs a task request with the handle its result resolves.
type pendingTask struct {
	req    *wire.TaskRequest
	handle *Handle
}

// taskQueue is the pool's FIFO intake. Submission order is preserved; worker
// slots drain it one task at a time. Closing stops intake but lets slots
// finish whatever is already queued.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*pendingTask
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a task. Returns ErrPoolClosed once Close has been called.
func (q *taskQueue) Enqueue(t *pendingTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrPoolClosed
	}
	q.items = append(q.items, t)
	q.cond.Signal()
	return nil
}

// Next blocks until a task is available or the queue is closed and drained.
func (q *taskQueue) Next() (*pendingTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

// Close stops intake. Idempotent.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Depth returns the number of queued, not-yet-claimed tasks.
func (q *taskQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
