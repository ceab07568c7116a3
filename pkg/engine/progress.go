package engine

import "log"

// ProgressSink receives completion updates for one run. Advance is called by
// a single consumer goroutine with a monotonically increasing count. Chunks
// finish in completion order, not submission order. Implementations must
// return quickly; they sit just off the coordinator's critical path.
type ProgressSink interface {
	Begin(label string, total int)
	Advance(completed int)
	End()
}

// LogProgress is a ProgressSink that writes one status line per completed
// chunk through the standard logger.
type LogProgress struct {
	label string
	total int
}

func (l *LogProgress) Begin(label string, total int) {
	l.label, l.total = label, total
	log.Printf("🔄 Processing %s: %d chunks", label, total)
}

func (l *LogProgress) Advance(completed int) {
	log.Printf("📦 %s: %d/%d chunks done", l.label, completed, l.total)
}

func (l *LogProgress) End() {
	log.Printf("✅ %s: finished", l.label)
}
