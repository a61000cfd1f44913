// Package seriesv1 is the gRPC contract of eventseries.v1.SeriesService.
// Messages are google.protobuf.Struct; field names are listed in
// internal/service.
package seriesv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "eventseries.v1.SeriesService"

const (
	SeriesService_CreateSeries_FullMethodName               = "/" + ServiceName + "/CreateSeries"
	SeriesService_ActivateSeries_FullMethodName             = "/" + ServiceName + "/ActivateSeries"
	SeriesService_GenerateRecurringInstances_FullMethodName = "/" + ServiceName + "/GenerateRecurringInstances"
	SeriesService_FindInDateRange_FullMethodName            = "/" + ServiceName + "/FindInDateRange"
	SeriesService_EditOccurrence_FullMethodName             = "/" + ServiceName + "/EditOccurrence"
	SeriesService_CancelOccurrence_FullMethodName           = "/" + ServiceName + "/CancelOccurrence"
	SeriesService_DeleteInstance_FullMethodName             = "/" + ServiceName + "/DeleteInstance"
	SeriesService_CancelSeries_FullMethodName               = "/" + ServiceName + "/CancelSeries"
	SeriesService_ExportICS_FullMethodName                  = "/" + ServiceName + "/ExportICS"
)

// SeriesServiceClient is the client API for SeriesService.
type SeriesServiceClient interface {
	CreateSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ActivateSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GenerateRecurringInstances(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FindInDateRange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EditOccurrence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CancelOccurrence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteInstance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CancelSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ExportICS(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type seriesServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSeriesServiceClient(cc grpc.ClientConnInterface) SeriesServiceClient {
	return &seriesServiceClient{cc}
}

func (c *seriesServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *seriesServiceClient) CreateSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_CreateSeries_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) ActivateSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_ActivateSeries_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) GenerateRecurringInstances(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_GenerateRecurringInstances_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) FindInDateRange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_FindInDateRange_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) EditOccurrence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_EditOccurrence_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) CancelOccurrence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_CancelOccurrence_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) DeleteInstance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_DeleteInstance_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) CancelSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_CancelSeries_FullMethodName, in, opts...)
}

func (c *seriesServiceClient) ExportICS(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SeriesService_ExportICS_FullMethodName, in, opts...)
}

// SeriesServiceServer is the server API for SeriesService.
// Implementations must embed UnimplementedSeriesServiceServer.
type SeriesServiceServer interface {
	CreateSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ActivateSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateRecurringInstances(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindInDateRange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditOccurrence(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelOccurrence(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteInstance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportICS(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedSeriesServiceServer()
}

type UnimplementedSeriesServiceServer struct{}

func (UnimplementedSeriesServiceServer) CreateSeries(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateSeries not implemented")
}
func (UnimplementedSeriesServiceServer) ActivateSeries(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ActivateSeries not implemented")
}
func (UnimplementedSeriesServiceServer) GenerateRecurringInstances(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateRecurringInstances not implemented")
}
func (UnimplementedSeriesServiceServer) FindInDateRange(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method FindInDateRange not implemented")
}
func (UnimplementedSeriesServiceServer) EditOccurrence(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method EditOccurrence not implemented")
}
func (UnimplementedSeriesServiceServer) CancelOccurrence(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelOccurrence not implemented")
}
func (UnimplementedSeriesServiceServer) DeleteInstance(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteInstance not implemented")
}
func (UnimplementedSeriesServiceServer) CancelSeries(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelSeries not implemented")
}
func (UnimplementedSeriesServiceServer) ExportICS(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportICS not implemented")
}
func (UnimplementedSeriesServiceServer) mustEmbedUnimplementedSeriesServiceServer() {}

func RegisterSeriesServiceServer(s grpc.ServiceRegistrar, srv SeriesServiceServer) {
	s.RegisterService(&SeriesService_ServiceDesc, srv)
}

type unaryMethod func(SeriesServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// handler adapts one unary method to the grpc.MethodDesc handler shape.
func handler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SeriesServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		h := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SeriesServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, h)
	}
}

var SeriesService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SeriesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSeries", Handler: handler(SeriesService_CreateSeries_FullMethodName, SeriesServiceServer.CreateSeries)},
		{MethodName: "ActivateSeries", Handler: handler(SeriesService_ActivateSeries_FullMethodName, SeriesServiceServer.ActivateSeries)},
		{MethodName: "GenerateRecurringInstances", Handler: handler(SeriesService_GenerateRecurringInstances_FullMethodName, SeriesServiceServer.GenerateRecurringInstances)},
		{MethodName: "FindInDateRange", Handler: handler(SeriesService_FindInDateRange_FullMethodName, SeriesServiceServer.FindInDateRange)},
		{MethodName: "EditOccurrence", Handler: handler(SeriesService_EditOccurrence_FullMethodName, SeriesServiceServer.EditOccurrence)},
		{MethodName: "CancelOccurrence", Handler: handler(SeriesService_CancelOccurrence_FullMethodName, SeriesServiceServer.CancelOccurrence)},
		{MethodName: "DeleteInstance", Handler: handler(SeriesService_DeleteInstance_FullMethodName, SeriesServiceServer.DeleteInstance)},
		{MethodName: "CancelSeries", Handler: handler(SeriesService_CancelSeries_FullMethodName, SeriesServiceServer.CancelSeries)},
		{MethodName: "ExportICS", Handler: handler(SeriesService_ExportICS_FullMethodName, SeriesServiceServer.ExportICS)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eventseries/v1/series.proto",
}
