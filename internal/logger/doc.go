// Package logger wraps zap with a global sugared logger, console or JSON
// encoding, and helpers that carry a scoped logger in a context.Context.
//
// Services take a context and log through it, so names and fields added with
// WithName and WithFields follow the call.
package logger
