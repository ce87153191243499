// Package capability defines the Tool and Resource interfaces the
// dispatcher is polymorphic over, plus adapters for building them.
package capability

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/registry"
)

// ToolDescriptor is the immutable metadata of a tool.
type ToolDescriptor = protocol.ToolDescriptor

// ResourceDescriptor is the immutable metadata of a resource.
type ResourceDescriptor = protocol.ResourceDescriptor

// Tool is a named capability invoked with structured arguments.
//
// Call receives the raw JSON arguments ("{}" when the caller sent none)
// and returns a string, a *protocol.ToolResult, or any JSON-encodable value.
type Tool interface {
	Descriptor() ToolDescriptor
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Resource is an addressable capability read without arguments.
//
// Read returns a string, a []byte, a *Contents, or any JSON-encodable value.
// uri is the URI the caller requested, which differs from the descriptor's
// URI for templated resources.
type Resource interface {
	Descriptor() ResourceDescriptor
	Read(ctx context.Context, uri string) (any, error)
}

// Contents lets a resource override the MIME type or return binary data.
type Contents struct {
	MimeType string
	Text     string
	Blob     []byte
}

// ToolRegistry maps tool names to tools.
type ToolRegistry = registry.Registry[Tool]

// ResourceRegistry maps resource URIs to resources.
type ResourceRegistry = registry.Registry[Resource]

// NewToolRegistry creates a tool registry keyed by tool name.
func NewToolRegistry(opts ...registry.Option) *ToolRegistry {
	return registry.New(func(t Tool) string { return t.Descriptor().Name }, opts...)
}

// NewResourceRegistry creates a resource registry keyed by URI.
func NewResourceRegistry(opts ...registry.Option) *ResourceRegistry {
	return registry.New(func(r Resource) string { return r.Descriptor().URI }, opts...)
}
