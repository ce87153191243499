// Package testutil drives MCP handlers in memory for tests.
//
//	func TestGreet(t *testing.T) {
//	    tools := capability.NewToolRegistry()
//	    tools.MustRegister(greetTool)
//	    srv := server.New(server.Info{Name: "test", Version: "1.0.0"}, dispatch.New(tools, nil))
//
//	    tc := testutil.NewTestClient(t, srv)
//	    text, err := tc.CallTool("greet", map[string]any{"name": "World"})
//	    require.NoError(t, err)
//	    assert.Equal(t, "Hello, World", text)
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/dispatch"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/server"
	"github.com/felixgeelhaar/mcp-toolbox/transport"
)

// NewServer builds a server over fresh registries holding tools and
// resources.
func NewServer(tools []capability.Tool, resources []capability.Resource, opts ...dispatch.Option) *server.Server {
	toolReg := capability.NewToolRegistry()
	toolReg.MustRegister(tools...)
	resourceReg := capability.NewResourceRegistry()
	resourceReg.MustRegister(resources...)
	return server.New(server.Info{Name: "test-server", Version: "0.0.0"}, dispatch.New(toolReg, resourceReg, opts...))
}

// TestClient sends requests straight to a handler, without a transport.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	ctx     context.Context
	reqID   atomic.Int64
}

// NewTestClient creates a client for srv and performs the initialize
// handshake.
func NewTestClient(t testing.TB, srv *server.Server) *TestClient {
	t.Helper()

	tc := NewTestClientWithHandler(t, srv)
	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}
	return tc
}

// NewTestClientWithHandler creates a client for any handler, such as a
// server wrapped in middleware. No handshake is performed.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{t: t, handler: handler, ctx: context.Background()}
}

// WithContext returns a copy of tc that sends requests with ctx, e.g. to
// attach request metadata.
func (tc *TestClient) WithContext(ctx context.Context) *TestClient {
	c := &TestClient{t: tc.t, handler: tc.handler, ctx: ctx}
	c.reqID.Store(tc.reqID.Load())
	return c
}

// SendRequest sends a request and returns the response. Handler errors are
// converted to error responses the way transports do.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	req, err := newRequest(method, params)
	if err != nil {
		return nil, err
	}
	req.ID = json.RawMessage(fmt.Sprintf("%d", tc.reqID.Add(1)))

	resp, err := tc.handler.HandleRequest(tc.ctx, req)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.AsError(err)), nil
	}
	if resp == nil {
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	}
	return resp, nil
}

// Notify sends a notification and returns the handler's error, if any.
func (tc *TestClient) Notify(method string) error {
	req, err := newRequest(method, nil)
	if err != nil {
		return err
	}
	_, err = tc.handler.HandleRequest(tc.ctx, req)
	return err
}

// call sends a request and decodes its result into out.
func (tc *TestClient) call(method string, params, out any) error {
	tc.t.Helper()

	resp, err := tc.SendRequest(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Initialize sends initialize and notifications/initialized and returns
// the initialize result.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()

	var result map[string]any
	params := map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"clientInfo":      map[string]string{"name": "testutil", "version": "1.0.0"},
		"capabilities":    map[string]any{},
	}
	if err := tc.call(protocol.MethodInitialize, params, &result); err != nil {
		return nil, err
	}
	if err := tc.Notify(protocol.MethodInitialized); err != nil {
		return nil, err
	}
	return result, nil
}

// ListTools returns the tool descriptors.
func (tc *TestClient) ListTools() ([]protocol.ToolDescriptor, error) {
	tc.t.Helper()
	var result protocol.ListToolsResult
	if err := tc.call(protocol.MethodToolsList, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool calls a tool and returns the text of its result.
func (tc *TestClient) CallTool(name string, args any) (string, error) {
	tc.t.Helper()
	result, err := tc.CallToolResult(name, args)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// CallToolResult calls a tool and returns the decoded result.
func (tc *TestClient) CallToolResult(name string, args any) (*protocol.ToolResult, error) {
	tc.t.Helper()
	var result protocol.ToolResult
	if err := tc.call(protocol.MethodToolsCall, toolParams(name, args), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallToolRaw calls a tool and returns the raw response.
func (tc *TestClient) CallToolRaw(name string, args any) (*protocol.Response, error) {
	tc.t.Helper()
	return tc.SendRequest(protocol.MethodToolsCall, toolParams(name, args))
}

// ListResources returns the resource descriptors.
func (tc *TestClient) ListResources() ([]protocol.ResourceDescriptor, error) {
	tc.t.Helper()
	var result protocol.ListResourcesResult
	if err := tc.call(protocol.MethodResourcesList, nil, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource reads a resource and returns its first content item.
func (tc *TestClient) ReadResource(uri string) (*protocol.ResourceContents, error) {
	tc.t.Helper()
	var result protocol.ReadResourceResult
	if err := tc.call(protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	if len(result.Contents) == 0 {
		return nil, fmt.Errorf("resource %s returned no content", uri)
	}
	return &result.Contents[0], nil
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()
	return tc.call(protocol.MethodPing, nil, nil)
}

// AssertToolExists fails the test unless a tool called name is listed.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("ListTools failed: %v", err)
	}
	for _, tool := range tools {
		if tool.Name == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}

// AssertResourceExists fails the test unless a resource with uri, exact or
// template, is listed.
func (tc *TestClient) AssertResourceExists(uri string) {
	tc.t.Helper()

	resources, err := tc.ListResources()
	if err != nil {
		tc.t.Fatalf("ListResources failed: %v", err)
	}
	for _, res := range resources {
		if res.URI == uri {
			return
		}
	}
	tc.t.Errorf("resource %q not found", uri)
}

func toolParams(name string, args any) map[string]any {
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	return params
}

func newRequest(method string, params any) (*protocol.Request, error) {
	req := &protocol.Request{JSONRPC: protocol.JSONRPCVersion, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}
	return req, nil
}

// RecordingHandler wraps a handler and keeps every request it sees.
type RecordingHandler struct {
	next transport.Handler

	mu       sync.Mutex
	requests []*protocol.Request
}

// NewRecordingHandler wraps next.
func NewRecordingHandler(next transport.Handler) *RecordingHandler {
	return &RecordingHandler{next: next}
}

// HandleRequest records req and forwards it.
func (h *RecordingHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	h.mu.Lock()
	h.requests = append(h.requests, req)
	h.mu.Unlock()
	return h.next.HandleRequest(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (h *RecordingHandler) Requests() []*protocol.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*protocol.Request, len(h.requests))
	copy(out, h.requests)
	return out
}

// Methods returns the recorded method names in order.
func (h *RecordingHandler) Methods() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.requests))
	for i, r := range h.requests {
		out[i] = r.Method
	}
	return out
}

// Reset forgets the recorded requests.
func (h *RecordingHandler) Reset() {
	h.mu.Lock()
	h.requests = nil
	h.mu.Unlock()
}
