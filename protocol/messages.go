package protocol

import (
	"bytes"
	"encoding/json"
)

// JSONRPCVersion is the only JSON-RPC version accepted on the wire.
const JSONRPCVersion = "2.0"

// Request is a JSON-RPC 2.0 request or, without an ID, a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no ID and so must
// not be answered.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Validate checks the envelope fields every request must carry.
func (r *Request) Validate() *Error {
	if r.JSONRPC != JSONRPCVersion {
		return NewInvalidRequest(`jsonrpc must be "2.0"`)
	}
	if r.Method == "" {
		return NewInvalidRequest("missing method")
	}
	return nil
}

// ParseRequest decodes and validates one message. On failure it returns
// the error response to send back, carrying the request ID when one
// could be read.
func ParseRequest(data []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(bytes.TrimSpace(data), &req); err != nil {
		return nil, NewErrorResponse(nil, NewParseError(err.Error()))
	}
	if err := req.Validate(); err != nil {
		return nil, NewErrorResponse(req.ID, err)
	}
	return &req, nil
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error
// is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse builds a success response for id.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewErrorResponse builds an error response for id. A nil id, as after a
// parse error, is encoded as null.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}
