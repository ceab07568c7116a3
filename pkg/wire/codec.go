package wire

import "fmt"

// Codec is a gRPC codec for the engine's wire messages. It is installed on
// both ends with grpc.ForceCodec / grpc.ForceServerCodec, so no descriptor
// registry is involved.
type Codec struct{}

// Name identifies the codec in gRPC content subtype negotiation.
func (Codec) Name() string { return "segwire" }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("segwire codec: cannot marshal %T", v)
	}
	return m.MarshalWire()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("segwire codec: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}
