package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/mcp-toolbox"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	version        string
	skipMethods    map[string]bool
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service name attribute.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelServiceVersion sets the instrumentation version.
func WithOTelServiceVersion(version string) OTelOption {
	return func(c *otelConfig) {
		c.version = version
	}
}

// WithOTelSkipMethods excludes methods from tracing, e.g. ping.
func WithOTelSkipMethods(methods ...string) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skipMethods[m] = true
		}
	}
}

// OTel returns middleware that opens a server span per request and records
// request count, latency and errors. Tool calls and resource reads carry
// the tool name or URI as mcp.target.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "mcp-toolbox",
		version:        "1.0.0",
		skipMethods:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.version))
	meter := cfg.meterProvider.Meter(instrumentationName, metric.WithInstrumentationVersion(cfg.version))

	requestCounter, _ := meter.Int64Counter(
		"mcp.server.requests",
		metric.WithDescription("Total number of MCP requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"mcp.server.request.duration",
		metric.WithDescription("Duration of MCP requests"),
		metric.WithUnit("ms"),
	)
	errorCounter, _ := meter.Int64Counter(
		"mcp.server.errors",
		metric.WithDescription("Total number of failed MCP requests"),
		metric.WithUnit("{error}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skipMethods[req.Method] {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("mcp.method", req.Method),
				attribute.String("service.name", cfg.serviceName),
			}
			if target := Target(req); target != "" {
				attrs = append(attrs, attribute.String("mcp.target", target))
			}

			ctx, span := tracer.Start(ctx, "mcp."+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if reqID := RequestIDFromContext(ctx); reqID != "" {
				span.SetAttributes(attribute.String("mcp.request_id", reqID))
			}

			start := time.Now()
			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			resp, err := next(ctx, req)

			requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))

			code, failed := errorCode(resp, err)
			if !failed {
				span.SetStatus(codes.Ok, "")
				return resp, err
			}

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Error, resp.Error.Message)
			}
			if code != 0 {
				span.SetAttributes(attribute.Int("mcp.error_code", code))
				attrs = append(attrs, attribute.Int("mcp.error_code", code))
			}
			errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			return resp, err
		}
	}
}

// errorCode reports whether a handler outcome is a failure and, when the
// failure is a protocol error, its code.
func errorCode(resp *protocol.Response, err error) (int, bool) {
	if err != nil {
		var mcpErr *protocol.Error
		if errors.As(err, &mcpErr) {
			return mcpErr.Code, true
		}
		return 0, true
	}
	if resp != nil && resp.Error != nil {
		return resp.Error.Code, true
	}
	return 0, false
}
