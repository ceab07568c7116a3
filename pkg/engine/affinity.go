package engine

import "sync"

// AssignDevices produces the device id for each worker slot: slot i gets
// device i % devices, round-robin. Assignment is a property of the slot, not
// of individual tasks; a recycled worker re-derives the same id from its
// slot index. With devices == 0 there is no affinity and the result is nil.
func AssignDevices(devices, slots int) []int {
	if devices <= 0 || slots <= 0 {
		return nil
	}
	ids := make([]int, slots)
	for i := range ids {
		ids[i] = i % devices
	}
	return ids
}

// DeviceQueue is a FIFO of device assignments, consumed once per worker at
// startup. It is a pure allocation policy: it round-robins identifiers and
// knows nothing about device load.
type DeviceQueue struct {
	mu  sync.Mutex
	ids []int
}

func NewDeviceQueue(devices, slots int) *DeviceQueue {
	return &DeviceQueue{ids: AssignDevices(devices, slots)}
}

// Pop removes and returns the next device id. The second return is false
// when the queue is exhausted or no affinity was configured.
func (q *DeviceQueue) Pop() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return -1, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true
}
