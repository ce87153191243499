package middleware

import (
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// StackConfig selects the middleware assembled by Stack.
// Zero values switch the corresponding middleware off.
type StackConfig struct {
	Logger          Logger
	Timeout         time.Duration
	MaxRequestBytes int64
	RateLimit       int
	RateBurst       int
	Metrics         *Metrics
	Telemetry       []OTelOption
	EnableTelemetry bool
}

// DefaultStack returns the recommended production middleware stack:
// panic recovery, request IDs and logging.
func DefaultStack(logger Logger) []Middleware {
	return Stack(StackConfig{Logger: logger})
}

// Stack assembles the serving middleware in a fixed order. Recovery is
// outermost, then request IDs, then telemetry and logging so that rejected
// requests are observed too, and finally the guards closest to the router.
func Stack(cfg StackConfig) []Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	stack := []Middleware{
		RecoverWithLogger(logger),
		RequestID(),
	}
	if cfg.EnableTelemetry {
		stack = append(stack, OTel(cfg.Telemetry...))
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware())
	}
	stack = append(stack, Logging(logger))

	if cfg.MaxRequestBytes > 0 {
		stack = append(stack, SizeLimit(cfg.MaxRequestBytes, WithSizeLimitLogger(logger)))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		stack = append(stack, RateLimitByClient(cfg.RateLimit, burst,
			WithRateLimitLogger(logger),
			WithRateLimitExempt(protocol.MethodInitialize, protocol.MethodInitialized, protocol.MethodPing),
		))
	}
	if cfg.Timeout > 0 {
		stack = append(stack, Timeout(cfg.Timeout))
	}
	return stack
}
