// Package middleware provides request middleware for the MCP server.
//
// Each middleware wraps the next handler in the chain:
//
//	handler := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)(next)
//
// Stack assembles the serving stack from configuration:
//
//	metrics, _ := middleware.NewMetrics(prometheus.DefaultRegisterer)
//	stack := middleware.Stack(middleware.StackConfig{
//	    Logger:          logger,
//	    Timeout:         30 * time.Second,
//	    MaxRequestBytes: middleware.MB,
//	    RateLimit:       50,
//	    Metrics:         metrics,
//	    EnableTelemetry: true,
//	})
//
// Available middleware:
//
//   - Recover, RecoverWithLogger: turn panics into internal errors
//   - RequestID: ULID request IDs, honouring transport-supplied ones
//   - Logging: one structured line per request
//   - Timeout: request deadline on the context
//   - SizeLimit: rejects oversized params
//   - RateLimit, RateLimitByMethod, RateLimitByClient: token buckets
//   - OTel: OpenTelemetry spans and metrics
//   - Metrics.Middleware: Prometheus request metrics
package middleware
