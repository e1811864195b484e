package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// EmployeeServiceName は gRPC のサービス名です。
const EmployeeServiceName = "hr.employee.v1.EmployeeService"

// EmployeeServiceServer は EmployeeService が提供する RPC の集合です。
type EmployeeServiceServer interface {
	HireEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSalesPerformance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RaiseSalary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(EmployeeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call structMethod) grpc.MethodDesc {
	fullMethod := "/" + EmployeeServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EmployeeServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EmployeeServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// EmployeeServiceDesc は EmployeeService の grpc.ServiceDesc です。
var EmployeeServiceDesc = grpc.ServiceDesc{
	ServiceName: EmployeeServiceName,
	HandlerType: (*EmployeeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("HireEmployee", EmployeeServiceServer.HireEmployee),
		unaryHandler("GetEmployee", EmployeeServiceServer.GetEmployee),
		unaryHandler("ListEmployees", EmployeeServiceServer.ListEmployees),
		unaryHandler("ComputeSalesPerformance", EmployeeServiceServer.ComputeSalesPerformance),
		unaryHandler("RaiseSalary", EmployeeServiceServer.RaiseSalary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hr/employee/v1/employee.proto",
}

// RegisterEmployeeServiceServer は EmployeeService を gRPC サーバーに登録します。
func RegisterEmployeeServiceServer(s grpc.ServiceRegistrar, srv EmployeeServiceServer) {
	s.RegisterService(&EmployeeServiceDesc, srv)
}
