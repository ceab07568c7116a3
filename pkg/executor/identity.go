package executor

import (
	"context"

	"github.com/ALSM-PhD/Segframe/pkg/wire"
)

// Identity returns the chunk unchanged as a single bucket. Useful as a
// pipeline no-op and for verifying order preservation end to end.
func Identity() Executor {
	return Func{
		FuncName: "identity",
		Fn: func(ctx context.Context, req *wire.TaskRequest) ([]wire.Bucket, error) {
			return []wire.Bucket{{Present: true, Items: req.Data}}, nil
		},
	}
}
