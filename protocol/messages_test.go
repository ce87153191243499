package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		method   string
		id       string
		wantCode int
		errID    string
	}{
		{name: "numeric id", data: `{"jsonrpc":"2.0","id":1,"method":"ping"}`, method: "ping", id: "1"},
		{name: "string id", data: `{"jsonrpc":"2.0","id":"abc-123","method":"tools/list"}`, method: "tools/list", id: `"abc-123"`},
		{name: "notification", data: `{"jsonrpc":"2.0","method":"notifications/initialized"}`, method: "notifications/initialized"},
		{name: "surrounding whitespace", data: " {\"jsonrpc\":\"2.0\",\"id\":2,\"method\":\"ping\"}\r\n", method: "ping", id: "2"},
		{name: "invalid json", data: `{"jsonrpc":`, wantCode: CodeParseError, errID: "null"},
		{name: "wrong version", data: `{"jsonrpc":"1.0","id":3,"method":"ping"}`, wantCode: CodeInvalidRequest, errID: "3"},
		{name: "missing method", data: `{"jsonrpc":"2.0","id":"x"}`, wantCode: CodeInvalidRequest, errID: `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, errResp := ParseRequest([]byte(tt.data))

			if tt.wantCode != 0 {
				if errResp == nil {
					t.Fatalf("ParseRequest() = %+v, want error %d", req, tt.wantCode)
				}
				if errResp.Error.Code != tt.wantCode {
					t.Errorf("code = %d, want %d", errResp.Error.Code, tt.wantCode)
				}
				if string(errResp.ID) != tt.errID {
					t.Errorf("error ID = %s, want %s", errResp.ID, tt.errID)
				}
				return
			}

			if errResp != nil {
				t.Fatalf("unexpected error response: %+v", errResp.Error)
			}
			if req.Method != tt.method {
				t.Errorf("Method = %q, want %q", req.Method, tt.method)
			}
			if string(req.ID) != tt.id {
				t.Errorf("ID = %s, want %s", req.ID, tt.id)
			}
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	valid := Request{JSONRPC: JSONRPCVersion, Method: MethodPing}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	missing := Request{JSONRPC: JSONRPCVersion}
	if err := missing.Validate(); err == nil || !errors.Is(err, &Error{Code: CodeInvalidRequest}) {
		t.Errorf("Validate() = %v, want invalid request", err)
	}
}

func TestRequest_IsNotification(t *testing.T) {
	if !(&Request{Method: "notifications/initialized"}).IsNotification() {
		t.Error("request without ID should be a notification")
	}
	if (&Request{ID: json.RawMessage(`0`)}).IsNotification() {
		t.Error("request with ID 0 is not a notification")
	}
}

func TestResponse_Encoding(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "result",
			resp: NewResponse(json.RawMessage(`1`), map[string]any{"ok": true}),
			want: `{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`,
		},
		{
			name: "error",
			resp: NewErrorResponse(json.RawMessage(`"a"`), NewNotFound("tool not found: x")),
			want: `{"jsonrpc":"2.0","id":"a","error":{"code":-32001,"message":"tool not found: x"}}`,
		},
		{
			name: "error without id",
			resp: NewErrorResponse(nil, NewParseError("bad")),
			want: `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"bad"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("json = %s, want %s", data, tt.want)
			}
		})
	}
}
