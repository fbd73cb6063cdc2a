// Package log provides context-aware helpers for zap, used across the
// protocol packages to correlate log lines of one request/recovery run.
package log

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithNewRequestID returns a context carrying a fresh request id.
// Servers attach one per inbound request, coordinators per operation.
func WithNewRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestIDKey{}, uuid.NewString())
}

// ZContext returns a zap field with the request id stored in the context,
// or a no-op field if the context carries none.
func ZContext(ctx context.Context) zap.Field {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return zap.String("request_id", id)
	}
	return zap.Skip()
}
