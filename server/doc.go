// Package server provides the MCP JSON-RPC router.
//
// A Server maps decoded protocol requests onto a dispatch.Dispatcher and
// answers the session handshake itself:
//
//	tools := capability.NewToolRegistry(registry.RejectDuplicates())
//	tools.MustRegister(echo, add)
//
//	srv := server.New(server.Info{Name: "toolbox", Version: "1.0.0"},
//	    dispatch.New(tools, nil),
//	    server.WithMiddleware(middleware.Recover()),
//	)
//
//	transport.NewStdio().Serve(ctx, srv)
//
// # Methods
//
//   - initialize: protocol version, server info and the capabilities that
//     have at least one registration
//   - notifications/initialized: accepted, no response
//   - ping: empty result
//   - tools/list, tools/call, resources/list, resources/read: delegated to
//     the dispatcher
//
// Any other method yields a MethodNotFound error. Absent or malformed
// params yield InvalidParams. An empty tool name or resource URI is
// passed to the dispatcher, which reports it as NotFound.
package server
