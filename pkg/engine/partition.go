package engine

// Chunk is a contiguous half-open range [Start,End) of the workload plus the
// data it denotes. Chunks are non-overlapping and, concatenated in Index
// order, cover the whole workload exactly.
type Chunk struct {
	Index  int
	Start  int
	End    int
	Data   [][]byte
	Labels [][]byte // accelerator mode only
}

// Partition splits data into chunks of at most chunkSize items, in order.
// The final chunk is clipped; zero-length chunks are never produced.
func Partition(data [][]byte, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, &ConfigError{Param: "chunk size", Reason: "must be positive"}
	}
	n := len(data)
	steps := n / chunkSize
	if n%chunkSize != 0 {
		steps++
	}
	chunks := make([]Chunk, 0, steps)
	for i := 0; i < steps; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if end <= start {
			continue
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Data:  data[start:end],
		})
	}
	return chunks, nil
}

// PartitionDevices splits a paired feature/label workload into per-device
// shares. With devices > 1 the share is floor(N/devices), producing devices
// chunks plus one trailing remainder chunk when N is not divisible. With
// devices <= 1 the whole workload becomes a single chunk and the run
// degenerates to sequential execution, skipping device-binding overhead.
func PartitionDevices(features, labels [][]byte, devices int) ([]Chunk, error) {
	if devices < 0 {
		return nil, &ConfigError{Param: "device count", Reason: "must not be negative"}
	}
	if len(features) != len(labels) {
		return nil, &ConfigError{Param: "workload", Reason: "feature and label lengths differ"}
	}
	n := len(features)
	if n == 0 {
		return nil, nil
	}

	step := n
	steps := 1
	if devices > 1 {
		step = n / devices
		if step == 0 {
			// Fewer items than devices; one item per chunk keeps coverage.
			step = 1
		}
		steps = n / step
		if n%step != 0 {
			steps++
		}
	}

	chunks := make([]Chunk, 0, steps)
	for i := 0; i < steps; i++ {
		start := i * step
		end := start + step
		if end > n {
			end = n
		}
		if end <= start {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Start:  start,
			End:    end,
			Data:   features[start:end],
			Labels: labels[start:end],
		})
	}
	return chunks, nil
}
