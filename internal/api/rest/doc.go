// Package rest exposes the security controller over HTTP.
//
// Handlers translate JSON requests into SecurityService calls, so both
// transports share validation and error mapping. Bodies use the same
// protojson shapes as the gRPC messages.
package rest
