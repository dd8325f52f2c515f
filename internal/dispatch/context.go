package dispatch

import "context"

type contextKey string

const runIDKey contextKey = "run_id"

// RunID returns the run ID the dispatcher attached to a stream's context,
// or "" outside a dispatched stream.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

func contextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}
