package executor

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// SimulatedGPU mimics an accelerator-bound classification step with CPU work
// plus sleep. Latency grows sublinearly with chunk size, matching how real
// batched inference behaves.
type SimulatedGPU struct {
	BaseLatencyMs int
	device        int
}

func NewSimulated(baseLatencyMs int) *SimulatedGPU {
	if baseLatencyMs <= 0 {
		baseLatencyMs = 5
	}
	return &SimulatedGPU{BaseLatencyMs: baseLatencyMs, device: -1}
}

func (s *SimulatedGPU) Name() string { return "simulation" }

// Bind records the device id the worker process was pinned to. There is no
// real accelerator behind the simulation, so binding is just bookkeeping.
func (s *SimulatedGPU) Bind(device int) error {
	s.device = device
	return nil
}

func (s *SimulatedGPU) ExecuteChunk(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error) {
	n := len(req.Data)

	latency := time.Duration(s.BaseLatencyMs) * time.Millisecond
	latency += time.Duration(float64(n)*1.5) * time.Millisecond

	// Real CPU load so the simulation shows up in profiles like actual work.
	matrixWork(64)
	time.Sleep(latency)

	classes := []string{"cat", "dog", "car", "tree", "person", "building", "bird", "fish"}
	items := make([][]byte, n)
	for i := range items {
		result := map[string]any{
			"class":      classes[rand.Intn(len(classes))],
			"confidence": 0.7 + rand.Float64()*0.29,
			"simulated":  true,
			"device":     s.device,
		}
		data, _ := json.Marshal(result)
		items[i] = data
	}
	return []wire.Bucket{{Present: true, Items: items}}, nil
}

// matrixWork performs an NxN matrix multiplication to create real CPU load.
func matrixWork(n int) {
	a := make([][]float64, n)
	b := make([][]float64, n)
	c := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		b[i] = make([]float64, n)
		c[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			a[i][j] = rand.Float64()
			b[i][j] = rand.Float64()
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += a[i][k] * b[k][j]
			}
			c[i][j] = sum
		}
	}
	// Prevent the compiler from optimizing away the computation.
	_ = math.Sqrt(c[0][0])
}
