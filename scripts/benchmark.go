package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ALSM-PhD/Segframe/pkg/engine"
	"github.com/ALSM-PhD/Segframe/pkg/executor"
)

// benchmark drives repeated engine runs over an in-process pool and reports
// run latency percentiles. Use it to size chunking and worker counts before
// committing a long batch to real worker processes.
func main() {
	workers := flag.Int("workers", 4, "Worker slots")
	chunk := flag.Int("chunk", 64, "Chunk size")
	items := flag.Int("items", 4096, "Workload items per run")
	runs := flag.Int("runs", 20, "Number of runs")
	recycle := flag.Int("recycle", 50, "Tasks per worker before recycle")
	latency := flag.Int("latency", 5, "Simulated base latency per chunk (ms)")
	verbose := flag.Bool("verbose", false, "Log per-chunk progress")
	flag.Parse()

	log.Printf("🚀 Benchmark starting: workers=%d chunk=%d items=%d runs=%d",
		*workers, *chunk, *items, *runs)

	data := make([][]byte, *items)
	for i := range data {
		data[i] = []byte(fmt.Sprintf(`{"item":%d}`, i))
	}

	pool := func(ctx context.Context, cfg engine.PoolConfig) (engine.Pool, error) {
		return engine.NewLocalPool(engine.LocalPoolConfig{PoolConfig: cfg},
			executor.NewSimulated(*latency))
	}

	var progress engine.ProgressSink
	if *verbose {
		progress = &engine.LogProgress{}
	}

	var latencies []time.Duration
	chunks := 0
	start := time.Now()
	for i := 0; i < *runs; i++ {
		runStart := time.Now()
		buckets, err := engine.Run(context.Background(), engine.RunConfig{
			Executor:     "simulation",
			ChunkSize:    *chunk,
			Workers:      *workers,
			RecycleAfter: *recycle,
			Label:        fmt.Sprintf("bench-%d", i),
			NewPool:      pool,
			Progress:     progress,
		}, data)
		if err != nil {
			log.Fatalf("❌ Run %d failed: %v", i, err)
		}
		latencies = append(latencies, time.Since(runStart))
		chunks += (len(buckets[0]) + *chunk - 1) / *chunk
	}
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	throughput := float64(*runs*(*items)) / elapsed.Seconds()

	fmt.Println("\n" + "═══════════════════════════════════════════════════")
	fmt.Println("   🏁 BENCHMARK RESULTS")
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("   Duration:      %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Runs:          %d\n", *runs)
	fmt.Printf("   Chunks:        %d\n", chunks)
	fmt.Printf("   Throughput:    %.1f items/sec\n", throughput)
	fmt.Println()
	fmt.Println("   📊 Run Latency Percentiles:")
	fmt.Printf("      p50:  %v\n", latencies[len(latencies)*50/100])
	fmt.Printf("      p95:  %v\n", latencies[min(len(latencies)*95/100, len(latencies)-1)])
	fmt.Printf("      max:  %v\n", latencies[len(latencies)-1])
}
