package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      serverInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

func (s *Server) route(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.handleInitialize(req)
	case protocol.MethodInitialized:
		return nil, nil
	case protocol.MethodPing:
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	case protocol.MethodToolsList:
		return protocol.NewResponse(req.ID, s.dispatcher.ListTools(ctx)), nil
	case protocol.MethodToolsCall:
		return s.handleToolsCall(ctx, req)
	case protocol.MethodResourcesList:
		return protocol.NewResponse(req.ID, s.dispatcher.ListResources(ctx)), nil
	case protocol.MethodResourcesRead:
		return s.handleResourcesRead(ctx, req)
	}

	// Unknown notifications are dropped; there is nobody to answer.
	if req.IsNotification() && strings.HasPrefix(req.Method, "notifications/") {
		return nil, nil
	}
	return nil, protocol.NewMethodNotFound(req.Method)
}

func (s *Server) handleInitialize(req *protocol.Request) (*protocol.Response, error) {
	manifest := s.Manifest()

	capabilities := make(map[string]any)
	if manifest.Capabilities.Tools {
		capabilities["tools"] = map[string]any{}
	}
	if manifest.Capabilities.Resources {
		capabilities["resources"] = map[string]any{}
	}

	return protocol.NewResponse(req.ID, InitializeResult{
		ProtocolVersion: manifest.ProtocolVersion,
		ServerInfo:      serverInfo{Name: manifest.Name, Version: manifest.Version},
		Capabilities:    capabilities,
	}), nil
}

func (s *Server) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params protocol.CallToolParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	result, err := s.dispatcher.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (s *Server) handleResourcesRead(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params protocol.ReadResourceParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	result, err := s.dispatcher.ReadResource(ctx, params.URI)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return protocol.NewInvalidParams("missing params")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return protocol.NewInvalidParams(err.Error())
	}
	return nil
}
