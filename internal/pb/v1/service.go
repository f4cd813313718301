package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "catpoint.v1.SecurityService"

// Method names of the SecurityService.
const (
	MethodGetState            = "GetState"
	MethodSetArmingStatus     = "SetArmingStatus"
	MethodSetAlarmStatus      = "SetAlarmStatus"
	MethodListSensors         = "ListSensors"
	MethodAddSensor           = "AddSensor"
	MethodRemoveSensor        = "RemoveSensor"
	MethodSetSensorActivation = "SetSensorActivation"
	MethodReevaluateSensor    = "ReevaluateSensor"
	MethodProcessImage        = "ProcessImage"
)

// ActorMetadataKey carries "username@hostname" of the caller.
const ActorMetadataKey = "x-catpoint-actor"

// SecurityServiceServer is the server API for the SecurityService.
type SecurityServiceServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	SetAlarmStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListSensors(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReevaluateSensor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// SecurityServiceDesc describes the SecurityService for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var SecurityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SecurityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetState, SecurityServiceServer.GetState),
		unary(MethodSetArmingStatus, SecurityServiceServer.SetArmingStatus),
		unary(MethodSetAlarmStatus, SecurityServiceServer.SetAlarmStatus),
		unary(MethodListSensors, SecurityServiceServer.ListSensors),
		unary(MethodAddSensor, SecurityServiceServer.AddSensor),
		unary(MethodRemoveSensor, SecurityServiceServer.RemoveSensor),
		unary(MethodSetSensorActivation, SecurityServiceServer.SetSensorActivation),
		unary(MethodReevaluateSensor, SecurityServiceServer.ReevaluateSensor),
		unary(MethodProcessImage, SecurityServiceServer.ProcessImage),
	},
	Metadata: "catpoint/v1/security.proto",
}

// RegisterSecurityServiceServer registers the implementation on a gRPC server.
func RegisterSecurityServiceServer(s grpc.ServiceRegistrar, srv SecurityServiceServer) {
	s.RegisterService(&SecurityServiceDesc, srv)
}

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds a method descriptor that decodes a fresh Req and dispatches to call.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	method string,
	call func(SecurityServiceServer, context.Context, PReq) (Resp, error),
) grpc.MethodDesc {
	fullMethod := FullMethod(method)

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SecurityServiceServer), ctx, req.(PReq)) //nolint:forcetypeassert // Types are fixed by the descriptor.
			}

			if interceptor == nil {
				return handler(ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// SecurityServiceClient is the client API for the SecurityService.
type SecurityServiceClient struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewSecurityServiceClient wraps a connection into a SecurityService client.
func NewSecurityServiceClient(cc grpc.ClientConnInterface) *SecurityServiceClient {
	return &SecurityServiceClient{
		cc: cc,
	}
}

// GetState returns the current controller state.
func (c *SecurityServiceClient) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodGetState), new(emptypb.Empty), new(structpb.Struct), opts)
}

// SetArmingStatus changes the arming status.
func (c *SecurityServiceClient) SetArmingStatus(
	ctx context.Context,
	status string,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodSetArmingStatus), wrapperspb.String(status), new(structpb.Struct), opts)
}

// SetAlarmStatus overrides the alarm status.
func (c *SecurityServiceClient) SetAlarmStatus(
	ctx context.Context,
	status string,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodSetAlarmStatus), wrapperspb.String(status), new(structpb.Struct), opts)
}

// ListSensors returns the registered sensors.
func (c *SecurityServiceClient) ListSensors(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke(ctx, c.cc, FullMethod(MethodListSensors), new(emptypb.Empty), new(structpb.ListValue), opts)
}

// AddSensor registers a new sensor and returns it with its identifier.
func (c *SecurityServiceClient) AddSensor(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodAddSensor), req, new(structpb.Struct), opts)
}

// RemoveSensor unregisters a sensor by identifier.
func (c *SecurityServiceClient) RemoveSensor(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, FullMethod(MethodRemoveSensor), wrapperspb.String(id), new(emptypb.Empty), opts...)
}

// SetSensorActivation activates or deactivates a sensor.
func (c *SecurityServiceClient) SetSensorActivation(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodSetSensorActivation), req, new(structpb.Struct), opts)
}

// ReevaluateSensor reconciles the alarm status with a sensor's stored state.
func (c *SecurityServiceClient) ReevaluateSensor(
	ctx context.Context,
	id string,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodReevaluateSensor), wrapperspb.String(id), new(structpb.Struct), opts)
}

// ProcessImage submits an encoded camera image for classification.
func (c *SecurityServiceClient) ProcessImage(
	ctx context.Context,
	image []byte,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, FullMethod(MethodProcessImage), wrapperspb.Bytes(image), new(structpb.Struct), opts)
}

// invoke performs a unary call and returns out on success.
func invoke[T proto.Message](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in proto.Message,
	out T,
	opts []grpc.CallOption,
) (T, error) {
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		var zero T

		return zero, err
	}

	return out, nil
}
