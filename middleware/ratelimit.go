package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// KeyFunc extracts the rate limit bucket for a request.
type KeyFunc func(ctx context.Context, req *protocol.Request) string

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc KeyFunc
	logger  Logger
	exempt  map[string]bool
}

// WithRateLimitKeyFunc sets the function that picks a bucket per request.
func WithRateLimitKeyFunc(fn KeyFunc) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// WithRateLimitExempt lets the given methods through unconditionally.
func WithRateLimitExempt(methods ...string) RateLimitOption {
	return func(o *rateLimitConfig) {
		for _, m := range methods {
			o.exempt[m] = true
		}
	}
}

// RateLimit returns middleware that limits the request rate with a token
// bucket: rate requests per second, bursting up to burst.
func RateLimit(rate int, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc: func(context.Context, *protocol.Request) string { return "global" },
		exempt:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.exempt[req.Method] {
				return next(ctx, req)
			}

			key := cfg.keyFunc(ctx, req)
			if !limiter.Allow(ctx, key) {
				if cfg.logger != nil {
					cfg.logger.Warn("rate limit exceeded", F("method", req.Method), F("key", key))
				}
				return nil, &protocol.Error{
					Code:    protocol.CodeRateLimited,
					Message: "rate limit exceeded",
				}
			}

			return next(ctx, req)
		}
	}
}

// RateLimitByMethod applies a separate bucket per JSON-RPC method.
func RateLimitByMethod(rate int, burst int, opts ...RateLimitOption) Middleware {
	return RateLimit(rate, burst, append([]RateLimitOption{
		WithRateLimitKeyFunc(func(_ context.Context, req *protocol.Request) string {
			return req.Method
		}),
	}, opts...)...)
}

// RateLimitByClient applies a separate bucket per peer address, as set by
// the transport. Requests without an address share one bucket.
func RateLimitByClient(rate int, burst int, opts ...RateLimitOption) Middleware {
	return RateLimit(rate, burst, append([]RateLimitOption{
		WithRateLimitKeyFunc(ClientKey),
	}, opts...)...)
}

// ClientKey buckets requests by the transport-supplied remote address.
func ClientKey(ctx context.Context, _ *protocol.Request) string {
	if addr := protocol.GetRequestMeta(ctx, protocol.MetaRemoteAddr); addr != "" {
		return addr
	}
	return "local"
}
