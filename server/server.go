package server

import (
	"context"

	"github.com/felixgeelhaar/mcp-toolbox/dispatch"
	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name    string
	Version string
}

// Capabilities declares what features the server supports.
type Capabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
}

// Manifest represents the server manifest returned to clients.
type Manifest struct {
	Name            string       `json:"name"`
	Version         string       `json:"version"`
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
}

// Option configures a Server.
type Option func(*Server)

// WithMiddleware wraps request handling in the given middleware,
// the first one outermost.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, m...)
	}
}

// Server routes decoded JSON-RPC requests to a Dispatcher.
// It implements transport.Handler.
type Server struct {
	info       Info
	dispatcher *dispatch.Dispatcher
	middleware []middleware.Middleware
	handle     middleware.HandlerFunc
}

// New creates a server that answers requests using d.
func New(info Info, d *dispatch.Dispatcher, opts ...Option) *Server {
	if d == nil {
		d = dispatch.New(nil, nil)
	}
	s := &Server{
		info:       info,
		dispatcher: d,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.handle = s.route
	if len(s.middleware) > 0 {
		s.handle = middleware.Chain(s.middleware...)(s.route)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	return s.info
}

// Dispatcher returns the dispatcher backing this server.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// Manifest returns the server manifest for MCP initialization.
// Capabilities are derived from what is registered.
func (s *Server) Manifest() Manifest {
	return Manifest{
		Name:            s.info.Name,
		Version:         s.info.Version,
		ProtocolVersion: protocol.MCPVersion,
		Capabilities: Capabilities{
			Tools:     s.dispatcher.HasTools(),
			Resources: s.dispatcher.HasResources(),
		},
	}
}

// HandleRequest processes one request through the middleware chain.
func (s *Server) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return s.handle(ctx, req)
}
