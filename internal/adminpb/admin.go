// Package adminpb declares the gophdrop admin gRPC service. Messages are
// protobuf well-known types, so the service descriptor is written by hand
// in the shape protoc-gen-go-grpc produces.
package adminpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "gophdrop.admin.AdminService"

const (
	AdminService_DispatchFolder_FullMethodName = "/" + ServiceName + "/DispatchFolder"
	AdminService_ListPending_FullMethodName    = "/" + ServiceName + "/ListPending"
	AdminService_SweepChunks_FullMethodName    = "/" + ServiceName + "/SweepChunks"
)

// AdminServiceServer is implemented by the server side.
//
// DispatchFolder takes a folder path and answers with the outcome name
// ("Sent", "NotSent" or "NoPending"). ListPending returns
// {"entries": [{"folder", "files", "firstUpload", "lastUpload"}]}.
// SweepChunks removes staged chunks older than the given age and returns
// how many blobs were deleted.
type AdminServiceServer interface {
	DispatchFolder(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ListPending(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SweepChunks(context.Context, *durationpb.Duration) (*wrapperspb.Int64Value, error)
}

// UnimplementedAdminServiceServer can be embedded to satisfy
// AdminServiceServer with methods returning codes.Unimplemented.
type UnimplementedAdminServiceServer struct{}

func (UnimplementedAdminServiceServer) DispatchFolder(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method DispatchFolder not implemented")
}
func (UnimplementedAdminServiceServer) ListPending(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPending not implemented")
}
func (UnimplementedAdminServiceServer) SweepChunks(context.Context, *durationpb.Duration) (*wrapperspb.Int64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method SweepChunks not implemented")
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

func _AdminService_DispatchFolder_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).DispatchFolder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AdminService_DispatchFolder_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).DispatchFolder(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_ListPending_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).ListPending(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AdminService_ListPending_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).ListPending(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_SweepChunks_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(durationpb.Duration)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).SweepChunks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AdminService_SweepChunks_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).SweepChunks(ctx, req.(*durationpb.Duration))
	}
	return interceptor(ctx, in, info, handler)
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DispatchFolder", Handler: _AdminService_DispatchFolder_Handler},
		{MethodName: "ListPending", Handler: _AdminService_ListPending_Handler},
		{MethodName: "SweepChunks", Handler: _AdminService_SweepChunks_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophdrop/admin.proto",
}

type AdminServiceClient interface {
	DispatchFolder(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	ListPending(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SweepChunks(ctx context.Context, in *durationpb.Duration, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc}
}

func (c *adminServiceClient) DispatchFolder(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, AdminService_DispatchFolder_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) ListPending(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AdminService_ListPending_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) SweepChunks(ctx context.Context, in *durationpb.Duration, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, AdminService_SweepChunks_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
