// Package mcp is the entry point for building tool and resource servers
// on the Model Context Protocol.
//
// Capabilities are registered once, dispatched by name or URI, and served
// over stdio, HTTP or WebSocket:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required"`
//	}
//
//	srv, err := mcp.New(mcp.ServerInfo{Name: "my-server", Version: "1.0.0"},
//	    []mcp.Tool{
//	        mcp.MustTyped("search", "Search for items", func(ctx context.Context, in SearchInput) ([]string, error) {
//	            return []string{"result1", "result2"}, nil
//	        }),
//	    }, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mcp.ServeStdio(ctx, srv)
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/dispatch"
	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/registry"
	"github.com/felixgeelhaar/mcp-toolbox/server"
	"github.com/felixgeelhaar/mcp-toolbox/transport"
)

// Capability types
type (
	Tool               = capability.Tool
	Resource           = capability.Resource
	ToolDescriptor     = capability.ToolDescriptor
	ResourceDescriptor = capability.ResourceDescriptor
	Contents           = capability.Contents
	ToolFunc           = capability.ToolFunc
	ResourceFunc       = capability.ResourceFunc
)

// Server types
type (
	ServerInfo     = server.Info
	Server         = server.Server
	Dispatcher     = dispatch.Dispatcher
	DispatchOption = dispatch.Option
	ToolResult     = protocol.ToolResult
	Error          = protocol.Error
)

// Middleware types
type (
	Middleware            = middleware.Middleware
	MiddlewareHandlerFunc = middleware.HandlerFunc
	Logger                = middleware.Logger
	LogField              = middleware.Field
)

// Capability constructors.
var (
	NewTool           = capability.NewTool
	NewResource       = capability.NewResource
	Typed             = capability.Typed
	MustTyped         = capability.MustTyped
	ParamsFromContext = capability.ParamsFromContext
)

// Dispatcher options.
var (
	WithCallTimeout     = dispatch.WithCallTimeout
	WithInputValidation = dispatch.WithInputValidation
	WithObserver        = dispatch.WithObserver
)

// Size limit presets.
const (
	KB = middleware.KB
	MB = middleware.MB
)

// New registers tools and resources in strict registries, so a repeated
// name or URI is an error, and returns a server dispatching to them.
func New(info ServerInfo, tools []Tool, resources []Resource, opts ...DispatchOption) (*Server, error) {
	toolReg := capability.NewToolRegistry(registry.RejectDuplicates())
	for _, t := range tools {
		if err := toolReg.Register(t); err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.Descriptor().Name, err)
		}
	}

	resourceReg := capability.NewResourceRegistry(registry.RejectDuplicates())
	for _, r := range resources {
		if err := resourceReg.Register(r); err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.Descriptor().URI, err)
		}
	}

	return server.New(info, dispatch.New(toolReg, resourceReg, opts...)), nil
}

// ServeOption configures how a server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
	timeout    time.Duration
}

// WithMiddleware adds middleware after the default stack.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger sets the logger of the default middleware stack.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) ServeOption {
	return func(o *serveOptions) {
		o.timeout = d
	}
}

// Handler wraps srv in the default middleware stack (recovery, request
// IDs, logging) plus any extra middleware.
func Handler(srv *Server, opts ...ServeOption) transport.Handler {
	o := serveOptions{logger: middleware.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	stack := middleware.Stack(middleware.StackConfig{Logger: o.logger, Timeout: o.timeout})
	stack = append(stack, o.middleware...)
	return transport.HandlerFunc(middleware.Chain(stack...)(srv.HandleRequest))
}

// ServeStdio serves srv over stdin and stdout until EOF or ctx is canceled.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	return transport.NewStdio().Serve(ctx, Handler(srv, opts...))
}

// HTTPOption configures the HTTP transport.
type HTTPOption = transport.HTTPOption

// ServeHTTP serves srv with POST /mcp on addr until ctx is canceled.
func ServeHTTP(ctx context.Context, srv *Server, addr string, httpOpts []HTTPOption, opts ...ServeOption) error {
	return transport.NewHTTP(addr, httpOpts...).Serve(ctx, Handler(srv, opts...))
}

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeWebSocket serves srv over WebSocket on addr until ctx is canceled.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, opts ...ServeOption) error {
	return transport.NewWebSocket(addr, wsOpts...).Serve(ctx, Handler(srv, opts...))
}

// LogF creates a log field.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}
