// Package transport provides MCP transport implementations.
package transport

import (
	"context"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Handler processes incoming MCP requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve runs the transport until ctx is canceled, which is a clean
	// stop and returns nil, or until the transport fails.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// process runs req through handler and builds the response to write.
// Notifications never get one.
func process(ctx context.Context, handler Handler, req *protocol.Request) *protocol.Response {
	resp, err := handler.HandleRequest(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.AsError(err))
	}
	if resp == nil {
		return protocol.NewResponse(req.ID, map[string]any{})
	}
	return resp
}
