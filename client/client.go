// Package client provides an MCP client for tools and resources.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// ErrClosed is returned by transports after Close or when the peer hung up.
var ErrClosed = errors.New("client: transport closed")

// Transport carries requests to a server.
type Transport interface {
	// Send delivers req. For requests with an ID it waits for the matching
	// response; for notifications it returns (nil, nil) once written.
	Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
	Close() error
}

// ServerInfo is what the server reported during initialize.
type ServerInfo struct {
	Name            string
	Version         string
	ProtocolVersion string
	Tools           bool
	Resources       bool
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// Client is an MCP client bound to one transport.
type Client struct {
	transport Transport
	opts      clientOptions

	mu         sync.RWMutex
	serverInfo *ServerInfo
	nextID     atomic.Int64
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout         time.Duration
	name            string
	version         string
	protocolVersion string
}

// WithTimeout bounds each request. Zero disables the client-side deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithClientInfo sets the name and version sent in initialize.
func WithClientInfo(name, version string) Option {
	return func(o *clientOptions) {
		o.name = name
		o.version = version
	}
}

// WithProtocolVersion sets the protocol version requested in initialize.
func WithProtocolVersion(version string) Option {
	return func(o *clientOptions) {
		o.protocolVersion = version
	}
}

// New creates a client on transport.
func New(transport Transport, opts ...Option) *Client {
	options := clientOptions{
		timeout:         30 * time.Second,
		name:            "mcp-toolbox-client",
		version:         "1.0.0",
		protocolVersion: protocol.MCPVersion,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Client{transport: transport, opts: options}
}

// Initialize performs the handshake and sends notifications/initialized.
func (c *Client) Initialize(ctx context.Context) (*ServerInfo, error) {
	params := map[string]any{
		"protocolVersion": c.opts.protocolVersion,
		"clientInfo": map[string]string{
			"name":    c.opts.name,
			"version": c.opts.version,
		},
		"capabilities": map[string]any{},
	}

	var result initializeResult
	if err := c.call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	_, tools := result.Capabilities["tools"]
	_, resources := result.Capabilities["resources"]
	info := &ServerInfo{
		Name:            result.ServerInfo.Name,
		Version:         result.ServerInfo.Version,
		ProtocolVersion: result.ProtocolVersion,
		Tools:           tools,
		Resources:       resources,
	}

	c.mu.Lock()
	c.serverInfo = info
	c.mu.Unlock()

	if err := c.notify(ctx, protocol.MethodInitialized); err != nil {
		return nil, fmt.Errorf("initialized: %w", err)
	}
	return info, nil
}

// ListTools returns the server's tool descriptors in registration order.
func (c *Client) ListTools(ctx context.Context) ([]protocol.ToolDescriptor, error) {
	var result protocol.ListToolsResult
	if err := c.call(ctx, protocol.MethodToolsList, nil, &result); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool. arguments may be nil, a json.RawMessage or any
// JSON-encodable value.
func (c *Client) CallTool(ctx context.Context, name string, arguments any) (*protocol.ToolResult, error) {
	params := protocol.CallToolParams{Name: name}
	if arguments != nil {
		raw, ok := arguments.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(arguments); err != nil {
				return nil, fmt.Errorf("call tool %q: marshal arguments: %w", name, err)
			}
		}
		params.Arguments = raw
	}

	var result protocol.ToolResult
	if err := c.call(ctx, protocol.MethodToolsCall, params, &result); err != nil {
		return nil, fmt.Errorf("call tool %q: %w", name, err)
	}
	return &result, nil
}

// ListResources returns the server's resource descriptors.
func (c *Client) ListResources(ctx context.Context) ([]protocol.ResourceDescriptor, error) {
	var result protocol.ListResourcesResult
	if err := c.call(ctx, protocol.MethodResourcesList, nil, &result); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return result.Resources, nil
}

// ReadResource reads the resource at uri and returns its first item.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ResourceContents, error) {
	var result protocol.ReadResourceResult
	if err := c.call(ctx, protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, fmt.Errorf("read resource %q: %w", uri, err)
	}
	if len(result.Contents) == 0 {
		return nil, fmt.Errorf("read resource %q: no content", uri)
	}
	return &result.Contents[0], nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.call(ctx, protocol.MethodPing, nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ServerInfo returns what the server reported in Initialize, or nil.
func (c *Client) ServerInfo() *ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// Close closes the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// call sends a request and decodes its result into out. Server errors are
// returned as *protocol.Error so callers can match them with errors.Is.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	req, err := newRequest(method, params)
	if err != nil {
		return err
	}
	req.ID = json.RawMessage(fmt.Sprintf("%d", c.nextID.Add(1)))

	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("no response")
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return decodeResult(resp.Result, out)
}

func (c *Client) notify(ctx context.Context, method string) error {
	req, err := newRequest(method, nil)
	if err != nil {
		return err
	}
	_, err = c.transport.Send(ctx, req)
	return err
}

func newRequest(method string, params any) (*protocol.Request, error) {
	req := &protocol.Request{JSONRPC: protocol.JSONRPCVersion, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// decodeResult converts a result decoded as generic JSON into out.
func decodeResult(result, out any) error {
	raw, ok := result.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(result); err != nil {
			return fmt.Errorf("re-encode result: %w", err)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
