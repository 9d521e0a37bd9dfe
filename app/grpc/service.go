package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-connector/app/types"
	"google.golang.org/grpc"
)

const ServiceName = "connector.ConnectorService"

// ConnectorServer is the internal RPC surface used by the payment frontends.
type ConnectorServer interface {
	Health(context.Context, *types.HealthRequest) (*types.HealthResponse, error)
	Refund(context.Context, *types.RefundRequest) (*types.RefundResponse, error)
	ListRefunds(context.Context, *types.ChargeRequest) (*types.ListRefundsResponse, error)
	Capture(context.Context, *types.ChargeRequest) (*types.ChargeResponse, error)
	Cancel(context.Context, *types.CancelRequest) (*types.ChargeResponse, error)
}

func RegisterConnectorServer(registrar grpc.ServiceRegistrar, srv ConnectorServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed method to the generic handler signature the
// gRPC runtime dispatches to.
func unaryHandler[Req any, Resp any](method string, call func(ConnectorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConnectorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ConnectorServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConnectorServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Health", ConnectorServer.Health),
		unaryHandler("Refund", ConnectorServer.Refund),
		unaryHandler("ListRefunds", ConnectorServer.ListRefunds),
		unaryHandler("Capture", ConnectorServer.Capture),
		unaryHandler("Cancel", ConnectorServer.Cancel),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "connector",
}
