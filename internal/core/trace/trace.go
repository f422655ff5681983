// Package trace carries per-request identifiers through context.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Info holds request-scoped identifiers for log correlation.
type Info struct {
	RequestID string
}

type traceKey struct{}

// With attaches trace info to the context.
func With(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, traceKey{}, info)
}

// Get returns trace info from context, or nil.
func Get(ctx context.Context) *Info {
	if t, ok := ctx.Value(traceKey{}).(*Info); ok {
		return t
	}
	return nil
}

// NewRequestID generates a fresh request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
