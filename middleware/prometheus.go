package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Metrics holds the Prometheus collectors for request and capability
// invocation metrics.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	invocations     *prometheus.CounterVec
	invokeDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcp",
			Name:      "requests_total",
			Help:      "MCP requests by method and result code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcp",
			Name:      "request_duration_seconds",
			Help:      "MCP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcp",
			Name:      "invocations_total",
			Help:      "Tool calls and resource reads by capability and outcome.",
		}, []string{"kind", "id", "outcome"}),
		invokeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcp",
			Name:      "invocation_duration_seconds",
			Help:      "Tool call and resource read latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "id"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.requestDuration, m.invocations, m.invokeDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware returns middleware recording one sample per request.
func (m *Metrics) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if c, failed := errorCode(resp, err); failed {
				code = strconv.Itoa(c)
			}
			m.requests.WithLabelValues(req.Method, code).Inc()
			m.requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

			return resp, err
		}
	}
}

// ObserveInvocation records a single tool call or resource read.
func (m *Metrics) ObserveInvocation(kind, id string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.invocations.WithLabelValues(kind, id, outcome).Inc()
	m.invokeDuration.WithLabelValues(kind, id).Observe(duration.Seconds())
}
