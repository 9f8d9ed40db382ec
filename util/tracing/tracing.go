package tracing

import (
	"context"

	"github.com/bwise1/civic_circle/util/values"
)

// Context identifies a single request as it moves through the service and
// out to the Report Store.
type Context struct {
	RequestID     string `json:"request_id"`
	RequestSource string `json:"request_source"`
}

// FromContext returns the tracing context stored by the RequestTracing
// middleware, or the zero value when there is none.
func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(values.ContextTracingKey).(Context)
	return tc
}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, values.ContextTracingKey, tc)
}
