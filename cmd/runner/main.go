package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ALSM-PhD/Segframe/pkg/config"
	"github.com/ALSM-PhD/Segframe/pkg/engine"
	"github.com/ALSM-PhD/Segframe/pkg/monitor"
)

// runner drives one synthetic batch through the engine with worker
// processes, exposing live progress on the dashboard WebSocket.
func main() {
	cfg := config.Load()
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.Printf("🧠 Runner starting: workers=%d devices=%d chunk=%d executor=%s",
		cfg.WorkerCount, cfg.DeviceCount, cfg.ChunkSize, cfg.ExecutorName)

	broadcaster := monitor.NewBroadcaster()
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", broadcaster.HandleWS)
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		addr := fmt.Sprintf(":%d", cfg.DashboardPort)
		log.Printf("📊 Dashboard listening on %s/ws", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("❌ Dashboard server failed: %v", err)
		}
	}()

	// Synthetic workload: one opaque payload per item.
	const items = 2048
	data := make([][]byte, items)
	for i := range data {
		data[i] = []byte(fmt.Sprintf(`{"item":%d}`, i))
	}

	start := time.Now()
	buckets, err := engine.Run(context.Background(), engine.RunConfig{
		Executor:       cfg.ExecutorName,
		OutputDim:      1,
		ChunkSize:      cfg.ChunkSize,
		Workers:        cfg.WorkerCount,
		Devices:        cfg.DeviceCount,
		RecycleAfter:   cfg.RecycleAfter,
		MaxOutstanding: cfg.MaxOutstanding,
		Label:          "synthetic batch",
		Progress:       monitor.NewSink(broadcaster, 500*time.Millisecond),
		NewPool:        engine.ProcessPool(cfg.WorkerBinary),
	}, data)
	if err != nil {
		log.Fatalf("❌ Run failed: %v", err)
	}

	log.Printf("✅ Run done in %v: buckets=%d items=%d", time.Since(start), len(buckets), len(buckets[0]))
}
