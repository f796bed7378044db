package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyClienteEmail  = ContextKey("ClienteEmail")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyWorkerId identifies the background worker instance that
	// produced a write. Used for log correlation.
	ContextKeyWorkerId = ContextKey("WorkerId")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
