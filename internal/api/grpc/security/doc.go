// Package security implements the gRPC transport for the security controller.
//
// It adapts domain types to protobuf messages and exposes a server that calls
// into a provided controller interface. Controller errors are translated into
// gRPC status codes.
package security
