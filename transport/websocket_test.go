package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/transport"
)

func dialWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocket_Handler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := transport.NewWebSocket(":0")
	ts := httptest.NewServer(ws.Handler(ctx, echoHandler))
	defer ts.Close()

	conn := dialWebSocket(t, ts.URL)
	defer conn.Close()

	t.Run("request round trip", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"jsonrpc":"2.0","id":1,"method":"echo","params":{"message":"hi"}}`)); err != nil {
			t.Fatal(err)
		}
		msg := readJSON(t, conn)
		if msg["id"] != float64(1) {
			t.Errorf("id = %v", msg["id"])
		}
		if msg["result"].(map[string]any)["message"] != "hi" {
			t.Errorf("result = %v", msg["result"])
		}
	})

	t.Run("notification then request", func(t *testing.T) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))

		msg := readJSON(t, conn)
		if msg["id"] != float64(2) {
			t.Errorf("expected only the ping response, got %v", msg)
		}
	})

	t.Run("malformed message keeps the connection", func(t *testing.T) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{nope`))
		if code := errorCodeOf(t, readJSON(t, conn)); code != protocol.CodeParseError {
			t.Errorf("code = %d, want parse error", code)
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":3,"method":"meta"}`))
		meta := readJSON(t, conn)["result"].(map[string]any)
		if meta[protocol.MetaTransport] != "websocket" {
			t.Errorf("meta = %v", meta)
		}
	})
}

func TestWebSocket_CheckOrigin(t *testing.T) {
	ws := transport.NewWebSocket(":0", transport.WithWebSocketCheckOrigin(func(*http.Request) bool {
		return false
	}))
	ts := httptest.NewServer(ws.Handler(context.Background(), echoHandler))
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err == nil {
		t.Fatal("expected upgrade to be refused")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	}
}

func TestWebSocket_MaxMessageBytes(t *testing.T) {
	ws := transport.NewWebSocket(":0", transport.WithWebSocketMaxMessageBytes(32))
	ts := httptest.NewServer(ws.Handler(context.Background(), echoHandler))
	defer ts.Close()

	conn := dialWebSocket(t, ts.URL)
	defer conn.Close()

	_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 128)))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after oversized message")
	}
}

func TestWebSocket_Serve(t *testing.T) {
	ws := transport.NewWebSocket("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Serve(ctx, echoHandler) }()

	deadline := time.Now().Add(2 * time.Second)
	for ws.ListenAddr() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ws.ListenAddr() == "" {
		t.Fatal("server did not start")
	}

	conn := dialWebSocket(t, "http://"+ws.ListenAddr())
	defer conn.Close()

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if msg := readJSON(t, conn); msg["id"] != float64(1) {
		t.Errorf("msg = %v", msg)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection closed after shutdown")
	}
}
