package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the structured, context-aware logging contract shared by every
// layer. Fields are alternating keys and values. Implementations must be safe
// for concurrent use and add the context's correlation ID, if any, as
// correlation_id. Conventional keys are layer, component, model_type,
// formula and error.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID returns a copy of ctx carrying id. One ID covers one
// check request or one click of the solve control.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the ID stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GenerateCorrelationID returns a fresh random UUID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}
