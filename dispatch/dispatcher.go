// Package dispatch implements the dispatch layer: it resolves tool names and
// resource URIs against the registries, invokes the bound capability and
// normalizes the outcome into the protocol's content envelopes.
//
// Failures are reported as *protocol.Error values:
//
//   - unknown tool name or resource URI: protocol.CodeNotFound
//   - arguments rejected by the declared schema: protocol.CodeInvalidParams
//     (only with WithInputValidation)
//   - the capability failed, panicked or ran past its deadline:
//     protocol.CodeExecutionError
//
// A Dispatcher holds no per-request state. The registries must not be
// mutated after New.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/schema"
)

// Kind identifies the capability variant in observer callbacks.
type Kind string

const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
)

// Observer is notified after every capability invocation.
// err is the normalized protocol error, or nil on success.
type Observer func(kind Kind, id string, duration time.Duration, err error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCallTimeout bounds every capability invocation. A handler still
// running at the deadline is abandoned and reported as an execution error.
func WithCallTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		disp.callTimeout = d
	}
}

// WithInputValidation validates tool arguments against the tool's declared
// input schema before invocation.
func WithInputValidation() Option {
	return func(disp *Dispatcher) {
		disp.validate = true
	}
}

// WithLogger sets the logger for dispatch events.
func WithLogger(l middleware.Logger) Option {
	return func(disp *Dispatcher) {
		disp.logger = l
	}
}

// WithObserver registers an invocation observer, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(disp *Dispatcher) {
		disp.observers = append(disp.observers, o)
	}
}

type templatedResource struct {
	tmpl     *capability.Template
	resource capability.Resource
}

// Dispatcher routes the four capability operations.
type Dispatcher struct {
	tools     *capability.ToolRegistry
	resources *capability.ResourceRegistry

	templates []templatedResource
	schemas   map[string]*schema.Schema

	callTimeout time.Duration
	validate    bool
	logger      middleware.Logger
	observers   []Observer
}

// New creates a Dispatcher over the given registries. Either registry may
// be nil, which behaves like an empty one.
func New(tools *capability.ToolRegistry, resources *capability.ResourceRegistry, opts ...Option) *Dispatcher {
	if tools == nil {
		tools = capability.NewToolRegistry()
	}
	if resources == nil {
		resources = capability.NewResourceRegistry()
	}

	d := &Dispatcher{
		tools:     tools,
		resources: resources,
		schemas:   make(map[string]*schema.Schema),
		logger:    middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, r := range resources.List() {
		uri := r.Descriptor().URI
		if !capability.IsTemplate(uri) {
			continue
		}
		tmpl, err := capability.CompileTemplate(uri)
		if err != nil {
			d.logger.Warn("skipping resource template", middleware.F("uri", uri), middleware.F("error", err.Error()))
			continue
		}
		d.templates = append(d.templates, templatedResource{tmpl: tmpl, resource: r})
	}

	if d.validate {
		for _, t := range tools.List() {
			desc := t.Descriptor()
			s, err := schema.Parse(desc.InputSchema)
			if err != nil {
				d.logger.Warn("input schema not usable for validation", middleware.F("tool", desc.Name), middleware.F("error", err.Error()))
				continue
			}
			d.schemas[desc.Name] = s
		}
	}

	return d
}

// HasTools reports whether any tool is registered.
func (d *Dispatcher) HasTools() bool { return d.tools.Len() > 0 }

// HasResources reports whether any resource is registered.
func (d *Dispatcher) HasResources() bool { return d.resources.Len() > 0 }

// ListTools returns every tool descriptor in registration order.
func (d *Dispatcher) ListTools(_ context.Context) protocol.ListToolsResult {
	tools := d.tools.List()
	result := protocol.ListToolsResult{Tools: make([]protocol.ToolDescriptor, 0, len(tools))}
	for _, t := range tools {
		result.Tools = append(result.Tools, t.Descriptor())
	}
	return result
}

// ListResources returns every resource descriptor in registration order.
func (d *Dispatcher) ListResources(_ context.Context) protocol.ListResourcesResult {
	resources := d.resources.List()
	result := protocol.ListResourcesResult{Resources: make([]protocol.ResourceDescriptor, 0, len(resources))}
	for _, r := range resources {
		result.Resources = append(result.Resources, r.Descriptor())
	}
	return result
}

// CallTool invokes the named tool. Missing or null arguments are passed to
// the tool as an empty object.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args json.RawMessage) (*protocol.ToolResult, error) {
	tool, ok := d.tools.Get(name)
	if !ok {
		return nil, protocol.NewNotFound("tool not found: " + name)
	}

	args = normalizeArgs(args)

	if s := d.schemas[name]; s != nil {
		if err := s.Validate(args); err != nil {
			return nil, protocol.NewInvalidParams(fmt.Sprintf("invalid arguments for tool %s: %v", name, err))
		}
	}

	d.logger.Debug("calling tool", middleware.F("tool", name))

	start := time.Now()
	value, err := d.invoke(ctx, func(ctx context.Context) (any, error) {
		return tool.Call(ctx, args)
	})

	var result *protocol.ToolResult
	if err == nil {
		result, err = toolResult(value)
		if err != nil {
			err = fmt.Errorf("unencodable result: %w", err)
		}
	}
	if err != nil {
		err = executionError(KindTool, name, err)
	}
	d.observe(KindTool, name, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReadResource reads the resource registered under uri. Exact URIs win over
// templates; templates are tried in registration order.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	res, params, ok := d.resolveResource(uri)
	if !ok {
		return nil, protocol.NewNotFound("resource not found: " + uri)
	}
	if params != nil {
		ctx = capability.ContextWithParams(ctx, params)
	}

	desc := res.Descriptor()
	d.logger.Debug("reading resource", middleware.F("uri", uri))

	start := time.Now()
	value, err := d.invoke(ctx, func(ctx context.Context) (any, error) {
		return res.Read(ctx, uri)
	})

	var contents protocol.ResourceContents
	if err == nil {
		contents, err = resourceContents(uri, desc.MimeType, value)
		if err != nil {
			err = fmt.Errorf("unencodable content: %w", err)
		}
	}
	if err != nil {
		err = executionError(KindResource, uri, err)
	}
	d.observe(KindResource, desc.URI, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{contents}}, nil
}

func (d *Dispatcher) resolveResource(uri string) (capability.Resource, map[string]string, bool) {
	if res, ok := d.resources.Get(uri); ok {
		return res, nil, true
	}
	for _, t := range d.templates {
		if params, ok := t.tmpl.Match(uri); ok {
			return t.resource, params, true
		}
	}
	return nil, nil, false
}

type outcome struct {
	value any
	err   error
}

// invoke runs fn under the call deadline. A panic inside fn is converted
// to an error. When ctx ends first the handler goroutine is abandoned.
func (d *Dispatcher) invoke(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) observe(kind Kind, id string, duration time.Duration, err error) {
	if err != nil {
		d.logger.Warn(string(kind)+" failed",
			middleware.F(string(kind), id),
			middleware.F("duration", duration),
			middleware.F("error", err.Error()),
		)
	}
	for _, o := range d.observers {
		o(kind, id, duration, err)
	}
}

// normalizeArgs maps absent and null arguments to an empty object.
func normalizeArgs(args json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return json.RawMessage(`{}`)
	}
	return args
}
