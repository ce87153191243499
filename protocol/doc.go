// Package protocol defines the MCP JSON-RPC 2.0 message types, content
// envelopes and error codes.
//
// # Request and Response Types
//
//	type Request struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Method  string          `json:"method"`
//	    Params  json.RawMessage `json:"params,omitempty"`
//	}
//
// # Error Codes
//
// Standard JSON-RPC 2.0 error codes plus the MCP-specific ones:
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method not found
//	CodeInvalidParams  = -32602  // Invalid method parameters
//	CodeInternalError  = -32603  // Internal server error
//	CodeNotFound       = -32001  // Unknown tool name or resource URI
//	CodeExecutionError = -32004  // A tool or resource handler failed
//
// Helper functions create properly formatted errors:
//
//	err := protocol.NewNotFound("tool not found: search")
//	err := protocol.NewExecutionError("tool search failed: timeout")
//
// # Content Envelopes
//
// Tool calls answer with a ToolResult holding text Content items, resource
// reads with a ReadResourceResult holding ResourceContents.
package protocol
