// Package wire defines the messages exchanged between the engine coordinator
// and its worker processes, encoded in protobuf wire format by hand via
// protowire. The schema is small enough that generated code buys nothing;
// field numbers are fixed in the comments below and must not be reused.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every wire type handled by the gRPC codec.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(data []byte) error
}

// TaskRequest carries one chunk of the workload to a worker.
//
// Fields: 1=task_id, 2=executor, 3=start, 4=end,
// 5=data (repeated), 6=labels (repeated), 7=params.
type TaskRequest struct {
	TaskID   uint64
	Executor string
	Start    int64
	End      int64
	Data     [][]byte
	Labels   [][]byte // accelerator mode only; nil otherwise
	Params   []byte   // opaque; identical across all tasks of one run
}

func (m *TaskRequest) MarshalWire() ([]byte, error) {
	var b []byte
	if m.TaskID != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, m.TaskID)
	}
	if m.Executor != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, m.Executor)
	}
	if m.Start != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Start))
	}
	if m.End != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.End))
	}
	for _, d := range m.Data {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	}
	for _, l := range m.Labels {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, l)
	}
	if len(m.Params) > 0 {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Params)
	}
	return b, nil
}

func (m *TaskRequest) UnmarshalWire(data []byte) error {
	*m = TaskRequest{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.TaskID = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Executor = v
			data = data[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Start = int64(v)
			data = data[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.End = int64(v)
			data = data[n:]
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Data = append(m.Data, append([]byte(nil), v...))
			data = data[n:]
		case num == 6 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Labels = append(m.Labels, append([]byte(nil), v...))
			data = data[n:]
		case num == 7 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Params = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

// Bucket is one of a chunk result's parallel output collections.
// Present distinguishes "this output index does not exist for this run"
// (dropped during aggregation) from a legitimately empty result.
//
// Fields: 1=present, 2=items (repeated).
type Bucket struct {
	Present bool
	Items   [][]byte
}

func (m *Bucket) MarshalWire() ([]byte, error) {
	var b []byte
	if m.Present {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	for _, it := range m.Items {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, it)
	}
	return b, nil
}

func (m *Bucket) UnmarshalWire(data []byte) error {
	*m = Bucket{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Present = v != 0
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Items = append(m.Items, append([]byte(nil), v...))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

// TaskResult is a worker's answer for one chunk.
//
// Fields: 1=task_id, 2=buckets (repeated), 3=elapsed_ns, 4=slot, 5=device.
type TaskResult struct {
	TaskID    uint64
	Buckets   []Bucket
	ElapsedNs int64
	Slot      int32
	Device    int32 // -1 when the worker has no device affinity
}

func (m *TaskResult) MarshalWire() ([]byte, error) {
	var b []byte
	if m.TaskID != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, m.TaskID)
	}
	for i := range m.Buckets {
		sub, err := m.Buckets[i].MarshalWire()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
	}
	if m.ElapsedNs != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.ElapsedNs))
	}
	if m.Slot != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Slot)))
	}
	if m.Device != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Device)))
	}
	return b, nil
}

func (m *TaskResult) UnmarshalWire(data []byte) error {
	*m = TaskResult{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.TaskID = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var bk Bucket
			if err := bk.UnmarshalWire(v); err != nil {
				return err
			}
			m.Buckets = append(m.Buckets, bk)
			data = data[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ElapsedNs = int64(v)
			data = data[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Slot = int32(int64(v))
			data = data[n:]
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Device = int32(int64(v))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

// PingRequest probes a worker for readiness.
type PingRequest struct{}

func (m *PingRequest) MarshalWire() ([]byte, error) { return nil, nil }

func (m *PingRequest) UnmarshalWire(data []byte) error {
	*m = PingRequest{}
	return nil
}

// WorkerInfo identifies a live worker process.
//
// Fields: 1=worker_id, 2=slot, 3=device, 4=tasks_done.
type WorkerInfo struct {
	WorkerID  string
	Slot      int32
	Device    int32
	TasksDone int64
}

func (m *WorkerInfo) MarshalWire() ([]byte, error) {
	var b []byte
	if m.WorkerID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, m.WorkerID)
	}
	if m.Slot != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Slot)))
	}
	if m.Device != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Device)))
	}
	if m.TasksDone != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.TasksDone))
	}
	return b, nil
}

func (m *WorkerInfo) UnmarshalWire(data []byte) error {
	*m = WorkerInfo{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.WorkerID = v
			data = data[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Slot = int32(int64(v))
			data = data[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Device = int32(int64(v))
			data = data[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.TasksDone = int64(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}
