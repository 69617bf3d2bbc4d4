package observability

import (
	"context"

	"github.com/rs/zerolog"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	searchIDKey  contextKey = "search_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithSearchID adds a search ID to the context.
func WithSearchID(ctx context.Context, searchID string) context.Context {
	return context.WithValue(ctx, searchIDKey, searchID)
}

// SearchIDFromContext retrieves the search ID from context.
// Returns empty string if not present.
func SearchIDFromContext(ctx context.Context) string {
	if v := ctx.Value(searchIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// LoggerFromContext enriches logger with the request and search IDs found on ctx.
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	lc := logger.With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := SearchIDFromContext(ctx); id != "" {
		lc = lc.Str("search_id", id)
	}
	return lc.Logger()
}
