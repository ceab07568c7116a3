package wire

import (
	"context"

	"google.golang.org/grpc"
)

// TaskService is the coordinator↔worker RPC surface. The stubs below are
// written by hand against grpc.ServiceDesc; the codec in codec.go does the
// message encoding.
const (
	TaskServiceName          = "segframe.engine.v1.TaskService"
	TaskServiceExecuteMethod = "/segframe.engine.v1.TaskService/Execute"
	TaskServicePingMethod    = "/segframe.engine.v1.TaskService/Ping"
)

// TaskServiceClient is the client API for TaskService.
type TaskServiceClient interface {
	// Execute runs one chunk task on the worker and blocks until it finishes.
	Execute(ctx context.Context, in *TaskRequest, opts ...grpc.CallOption) (*TaskResult, error)
	// Ping reports worker identity and readiness.
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*WorkerInfo, error)
}

type taskServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTaskServiceClient(cc grpc.ClientConnInterface) TaskServiceClient {
	return &taskServiceClient{cc}
}

func (c *taskServiceClient) Execute(ctx context.Context, in *TaskRequest, opts ...grpc.CallOption) (*TaskResult, error) {
	out := new(TaskResult)
	if err := c.cc.Invoke(ctx, TaskServiceExecuteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*WorkerInfo, error) {
	out := new(WorkerInfo)
	if err := c.cc.Invoke(ctx, TaskServicePingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TaskServiceServer is the server API for TaskService.
type TaskServiceServer interface {
	Execute(ctx context.Context, in *TaskRequest) (*TaskResult, error)
	Ping(ctx context.Context, in *PingRequest) (*WorkerInfo, error)
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&taskServiceDesc, srv)
}

func _TaskService_Execute_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskServiceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TaskServiceExecuteMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TaskServiceServer).Execute(ctx, req.(*TaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TaskService_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TaskServicePingMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TaskServiceServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var taskServiceDesc = grpc.ServiceDesc{
	ServiceName: TaskServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    _TaskService_Execute_Handler,
		},
		{
			MethodName: "Ping",
			Handler:    _TaskService_Ping_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "segframe/engine/v1/taskservice",
}
