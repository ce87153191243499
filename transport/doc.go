// Package transport moves MCP JSON-RPC messages between a client and a
// Handler, usually a *server.Server.
//
// # Stdio
//
// Newline-delimited JSON on stdin/stdout, one request at a time:
//
//	err := transport.NewStdio().Serve(ctx, srv)
//
// # HTTP
//
// POST /mcp carries one JSON-RPC message per request; GET /health reports
// "ok", or 503 "draining" during shutdown. Notifications are answered
// with 202 Accepted and no body.
//
//	t := transport.NewHTTP(":3000",
//	    transport.WithDefaultCORS(),
//	    transport.WithShutdownTimeout(10*time.Second),
//	)
//
// # WebSocket
//
// One JSON-RPC message per text frame on any path:
//
//	t := transport.NewWebSocket(":3000")
//
// Every transport answers unparseable messages with a ParseError and
// messages that are not JSON-RPC 2.0 requests with InvalidRequest. Errors
// returned by the handler are converted with protocol.AsError. The peer
// address and selected headers reach the handler as protocol.RequestMeta.
// Serve returns nil when its context is canceled.
package transport
