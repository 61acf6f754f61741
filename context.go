package rowkit

import (
	"context"
)

// traceKey is an unexported context key type.
type traceKey struct{}

// WithTraceID attaches a trace identifier that statement logs carry.
func WithTraceID(ctx context.Context, v string) context.Context {
	return context.WithValue(ctx, traceKey{}, v)
}

// traceID extracts the trace identifier from context.
func traceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}
