package capability

import (
	"context"
	"encoding/json"
)

// ToolFunc is the handler signature for tools built with NewTool.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// ResourceFunc is the handler signature for resources built with NewResource.
type ResourceFunc func(ctx context.Context, uri string) (any, error)

type funcTool struct {
	desc ToolDescriptor
	fn   ToolFunc
}

// NewTool pairs a descriptor with a handler function.
func NewTool(desc ToolDescriptor, fn ToolFunc) Tool {
	if len(desc.InputSchema) == 0 {
		desc.InputSchema = json.RawMessage(`{"type":"object"}`)
	}
	return &funcTool{desc: desc, fn: fn}
}

func (t *funcTool) Descriptor() ToolDescriptor { return t.desc }

func (t *funcTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return t.fn(ctx, args)
}

type funcResource struct {
	desc ResourceDescriptor
	fn   ResourceFunc
}

// NewResource pairs a descriptor with a reader function.
func NewResource(desc ResourceDescriptor, fn ResourceFunc) Resource {
	return &funcResource{desc: desc, fn: fn}
}

func (r *funcResource) Descriptor() ResourceDescriptor { return r.desc }

func (r *funcResource) Read(ctx context.Context, uri string) (any, error) {
	return r.fn(ctx, uri)
}
