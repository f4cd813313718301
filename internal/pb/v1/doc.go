// Package pb describes the catpoint.v1 wire format.
//
// Messages are protobuf well-known types (structpb, wrapperspb, emptypb) so
// the same shapes serve the gRPC API, the JSON state file, the HTTP API and
// MQTT payloads. The package also carries the SecurityService descriptor and
// a thin client over grpc.ClientConnInterface.
package pb
