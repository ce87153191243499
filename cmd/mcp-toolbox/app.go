package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/felixgeelhaar/mcp-toolbox/builtin"
	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/config"
	"github.com/felixgeelhaar/mcp-toolbox/dispatch"
	"github.com/felixgeelhaar/mcp-toolbox/logging"
	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/registry"
	"github.com/felixgeelhaar/mcp-toolbox/server"
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	metrics *prometheus.Registry
	tracer  *sdktrace.TracerProvider
	server  *server.Server
}

func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	logger, err := logging.New(cfg.LogLevel, logOut, logging.WithFormat(logging.Format(cfg.LogFormat)))
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	tools := capability.NewToolRegistry(
		registry.RejectDuplicates(),
		registry.OnRegister(func(name string, _ bool) {
			logger.Info("registered tool", middleware.F("tool", name))
		}),
	)
	resources := capability.NewResourceRegistry(
		registry.RejectDuplicates(),
		registry.OnRegister(func(uri string, _ bool) {
			logger.Info("registered resource", middleware.F("uri", uri))
		}),
	)
	if err := builtin.Register(tools, resources, cfg); err != nil {
		return nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	dispatchOpts := []dispatch.Option{
		dispatch.WithCallTimeout(time.Duration(cfg.CallTimeout)),
		dispatch.WithLogger(logger),
		dispatch.WithObserver(func(kind dispatch.Kind, id string, d time.Duration, err error) {
			metrics.ObserveInvocation(string(kind), id, d, err)
		}),
	}
	if cfg.ValidateInput {
		dispatchOpts = append(dispatchOpts, dispatch.WithInputValidation())
	}
	d := dispatch.New(tools, resources, dispatchOpts...)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.Name),
			attribute.String("service.version", cfg.Version),
		)),
	)

	stack := middleware.Stack(middleware.StackConfig{
		Logger:          logger,
		Timeout:         time.Duration(cfg.CallTimeout),
		MaxRequestBytes: cfg.MaxRequestBytes,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		Metrics:         metrics,
		EnableTelemetry: true,
		Telemetry: []middleware.OTelOption{
			middleware.WithTracerProvider(tp),
			middleware.WithOTelServiceName(cfg.Name),
			middleware.WithOTelServiceVersion(cfg.Version),
			middleware.WithOTelSkipMethods(protocol.MethodPing),
		},
	})

	srv := server.New(server.Info{Name: cfg.Name, Version: cfg.Version}, d,
		server.WithMiddleware(stack...))

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		tracer:  tp,
		server:  srv,
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", middleware.F("error", err))
	}
}
