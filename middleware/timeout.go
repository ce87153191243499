package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Timeout returns middleware that puts a deadline on the request context.
// Handlers observe it through ctx; the dispatcher reports a call that
// outlives it as an execution error. A non-positive d disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
