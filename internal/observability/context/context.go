package context

import (
	stdcontext "context"
	"strings"
)

type requestIDKey struct{}
type runIDKey struct{}

// WithRequestID stores the HTTP request id.
func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRunID stores the id of the report computation in progress.
func WithRunID(ctx stdcontext.Context, runID string) stdcontext.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}
