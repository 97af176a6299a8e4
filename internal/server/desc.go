package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service. Every method takes and returns
// a google.protobuf.Struct, so clients need no generated stubs.
const ServiceName = "docextract.v1.ExtractionService"

const (
	MethodExtract        = "Extract"
	MethodSendReport     = "SendReport"
	MethodDownloadRaw    = "DownloadRaw"
	MethodDownloadReport = "DownloadReport"
)

// ExtractionServer is the server API for ExtractionService.
type ExtractionServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DownloadRaw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DownloadReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod returns "/docextract.v1.ExtractionService/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodExtract, Handler: unaryHandler(MethodExtract, ExtractionServer.Extract)},
		{MethodName: MethodSendReport, Handler: unaryHandler(MethodSendReport, ExtractionServer.SendReport)},
		{MethodName: MethodDownloadRaw, Handler: unaryHandler(MethodDownloadRaw, ExtractionServer.DownloadRaw)},
		{MethodName: MethodDownloadReport, Handler: unaryHandler(MethodDownloadReport, ExtractionServer.DownloadReport)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docextract/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls ExtractionService over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
