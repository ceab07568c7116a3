package engine

import (
	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// Handle is the future for one submitted task. It is resolved exactly once,
// by the worker slot that executed the task.
type Handle struct {
	task   int
	done   chan struct{}
	res    *wire.TaskResult
	err    error
	notify chan<- int // completion events, in resolution order; may be nil
}

func newHandle(task int, notify chan<- int) *Handle {
	return &Handle{task: task, done: make(chan struct{}), notify: notify}
}

// Task returns the submission index of the task this handle tracks.
func (h *Handle) Task() int { return h.task }

// Wait blocks until the task completes, ignoring its outcome. The throttled
// submitter uses it to park on the oldest outstanding handle.
func (h *Handle) Wait() { <-h.done }

// Get blocks until the task completes and returns its result or the error
// the worker produced.
func (h *Handle) Get() (*wire.TaskResult, error) {
	<-h.done
	return h.res, h.err
}

func (h *Handle) resolve(res *wire.TaskResult, err error) {
	h.res, h.err = res, err
	close(h.done)
	if h.notify != nil {
		// Buffered to the run's task count; never blocks the worker slot.
		h.notify <- h.task
	}
}
