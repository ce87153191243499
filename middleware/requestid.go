package middleware

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestID returns middleware that injects a request ID into the context.
// An ID already in the context, or one supplied by the transport through
// the x-request-id metadata, is kept. Otherwise a ULID is generated.
func RequestID() Middleware {
	return RequestIDWithGenerator(newULID)
}

// RequestIDWithGenerator returns middleware that uses a custom ID generator.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if RequestIDFromContext(ctx) != "" {
				return next(ctx, req)
			}

			id := protocol.GetRequestMeta(ctx, protocol.MetaRequestID)
			if id == "" {
				id = generator()
			}
			return next(ContextWithRequestID(ctx, id), req)
		}
	}
}

// RequestIDFromContext returns the request ID from the context, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the request ID set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// newULID returns a lexicographically sortable, monotonic ID.
func newULID() string {
	return ulid.Make().String()
}
