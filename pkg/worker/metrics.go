package worker

import (
	"fmt"
	"net/http"
	"time"
)

// serveMetrics writes Prometheus-format worker counters.
func (w *Worker) serveMetrics(rw http.ResponseWriter, r *http.Request) {
	id := w.cfg.WorkerID
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(rw, "# HELP worker_tasks_total Chunk tasks completed by this process\n")
	fmt.Fprintf(rw, "# TYPE worker_tasks_total counter\n")
	fmt.Fprintf(rw, "worker_tasks_total{worker=%q} %d\n", id, w.tasksDone.Load())
	fmt.Fprintf(rw, "# HELP worker_busy_seconds_total Time spent inside the work callback\n")
	fmt.Fprintf(rw, "# TYPE worker_busy_seconds_total counter\n")
	fmt.Fprintf(rw, "worker_busy_seconds_total{worker=%q} %.3f\n", id, float64(w.busyNs.Load())/1e9)
	fmt.Fprintf(rw, "# HELP worker_uptime_seconds Process age\n")
	fmt.Fprintf(rw, "# TYPE worker_uptime_seconds gauge\n")
	fmt.Fprintf(rw, "worker_uptime_seconds{worker=%q} %.1f\n", id, time.Since(w.started).Seconds())
	fmt.Fprintf(rw, "# HELP worker_device Bound accelerator id (-1 without affinity)\n")
	fmt.Fprintf(rw, "# TYPE worker_device gauge\n")
	fmt.Fprintf(rw, "worker_device{worker=%q} %d\n", id, w.cfg.WorkerDevice)
}
