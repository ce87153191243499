package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// mockLogger captures log calls for testing.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level   string
	message string
	fields  []Field
}

func (l *mockLogger) add(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: msg, fields: fields})
}

func (l *mockLogger) Info(msg string, fields ...Field)  { l.add("info", msg, fields) }
func (l *mockLogger) Error(msg string, fields ...Field) { l.add("error", msg, fields) }
func (l *mockLogger) Debug(msg string, fields ...Field) { l.add("debug", msg, fields) }
func (l *mockLogger) Warn(msg string, fields ...Field)  { l.add("warn", msg, fields) }

func (e logEntry) field(key string) (any, bool) {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name        string
		req         *protocol.Request
		err         error
		wantLevel   string
		wantMessage string
		wantTarget  string
	}{
		{
			name:        "success at info",
			req:         &protocol.Request{Method: "tools/list"},
			wantLevel:   "info",
			wantMessage: "request completed",
		},
		{
			name: "tool call carries target",
			req: &protocol.Request{
				Method: protocol.MethodToolsCall,
				Params: json.RawMessage(`{"name":"echo","arguments":{}}`),
			},
			wantLevel:   "info",
			wantMessage: "request completed",
			wantTarget:  "echo",
		},
		{
			name: "not found at warn",
			req: &protocol.Request{
				Method: protocol.MethodResourcesRead,
				Params: json.RawMessage(`{"uri":"file://missing"}`),
			},
			err:         protocol.NewNotFound("resource not found: file://missing"),
			wantLevel:   "warn",
			wantMessage: "request rejected",
			wantTarget:  "file://missing",
		},
		{
			name:        "execution error at error",
			req:         &protocol.Request{Method: protocol.MethodToolsCall},
			err:         protocol.NewExecutionError("tool read_file failed: boom"),
			wantLevel:   "error",
			wantMessage: "request failed",
		},
		{
			name:        "plain error at error",
			req:         &protocol.Request{Method: "test/method"},
			err:         errors.New("handler failed"),
			wantLevel:   "error",
			wantMessage: "request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			handler := Logging(logger)(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return protocol.NewResponse(req.ID, "ok"), nil
			})

			_, err := handler(context.Background(), tt.req)
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}

			if len(logger.entries) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
			}
			entry := logger.entries[0]
			if entry.level != tt.wantLevel {
				t.Errorf("level = %q, want %q", entry.level, tt.wantLevel)
			}
			if entry.message != tt.wantMessage {
				t.Errorf("message = %q, want %q", entry.message, tt.wantMessage)
			}
			if v, _ := entry.field("method"); v != tt.req.Method {
				t.Errorf("method = %v, want %q", v, tt.req.Method)
			}
			if v, _ := entry.field("duration"); v == nil {
				t.Error("expected duration field")
			} else if _, ok := v.(time.Duration); !ok {
				t.Errorf("duration has type %T", v)
			}

			target, hasTarget := entry.field("target")
			if tt.wantTarget == "" && hasTarget {
				t.Errorf("unexpected target field %v", target)
			}
			if tt.wantTarget != "" && target != tt.wantTarget {
				t.Errorf("target = %v, want %q", target, tt.wantTarget)
			}

			_, hasErr := entry.field("error")
			if hasErr != (tt.err != nil) {
				t.Errorf("error field present = %v, want %v", hasErr, tt.err != nil)
			}
		})
	}
}

func TestLogging_RequestID(t *testing.T) {
	logger := &mockLogger{}
	handler := Logging(logger)(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.NewResponse(req.ID, "ok"), nil
	})

	ctx := ContextWithRequestID(context.Background(), "test-request-123")
	_, _ = handler(ctx, &protocol.Request{Method: "ping"})

	if v, _ := logger.entries[0].field("request_id"); v != "test-request-123" {
		t.Errorf("request_id = %v, want %q", v, "test-request-123")
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		method string
		params string
		want   string
	}{
		{protocol.MethodToolsCall, `{"name":"add","arguments":{"a":1}}`, "add"},
		{protocol.MethodResourcesRead, `{"uri":"config://server"}`, "config://server"},
		{protocol.MethodToolsCall, `not json`, ""},
		{protocol.MethodToolsCall, ``, ""},
		{protocol.MethodToolsList, `{"name":"ignored"}`, ""},
	}

	for _, tt := range tests {
		req := &protocol.Request{Method: tt.method, Params: json.RawMessage(tt.params)}
		if got := Target(req); got != tt.want {
			t.Errorf("Target(%s %s) = %q, want %q", tt.method, tt.params, got, tt.want)
		}
	}
}
