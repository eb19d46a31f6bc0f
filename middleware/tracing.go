package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// Tracing returns middleware that assigns each request a trace id and
// records the method name in the context.
func Tracing() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			ctx = context.WithValue(ctx, traceIDKey{}, uuid.NewString())
			ctx = context.WithValue(ctx, traceMethodKey{}, method)
			return next(ctx, method, params)
		}
	}
}

type traceIDKey struct{}
type traceMethodKey struct{}

// TraceID returns the request's trace id, if set by Tracing middleware.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}

// TraceMethod returns the method name from the context, if set by Tracing
// middleware.
func TraceMethod(ctx context.Context) string {
	if v, ok := ctx.Value(traceMethodKey{}).(string); ok {
		return v
	}
	return ""
}
