package common

import "context"

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// WithRequestID tags the context with an identifier that follows a unit
// of work through processing and into its log records.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
