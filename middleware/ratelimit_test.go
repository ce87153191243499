package middleware_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

func okHandler(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, "ok"), nil
}

func isRateLimited(err error) bool {
	var mcpErr *protocol.Error
	return errors.As(err, &mcpErr) && mcpErr.Code == protocol.CodeRateLimited
}

// drain issues n requests and returns how many were allowed.
func drain(handler middleware.HandlerFunc, ctx context.Context, method string, n int) int {
	allowed := 0
	for i := 0; i < n; i++ {
		if _, err := handler(ctx, &protocol.Request{Method: method}); err == nil {
			allowed++
		}
	}
	return allowed
}

func TestRateLimit(t *testing.T) {
	t.Run("allows up to burst then rejects", func(t *testing.T) {
		handler := middleware.RateLimit(1, 5)(okHandler)

		if got := drain(handler, context.Background(), "tools/call", 5); got != 5 {
			t.Errorf("allowed %d of burst 5", got)
		}

		_, err := handler(context.Background(), &protocol.Request{Method: "tools/call"})
		if !isRateLimited(err) {
			t.Fatalf("expected rate limit error, got %v", err)
		}
	})

	t.Run("exempt methods bypass the limiter", func(t *testing.T) {
		handler := middleware.RateLimit(1, 1, middleware.WithRateLimitExempt(protocol.MethodPing))(okHandler)

		if got := drain(handler, context.Background(), protocol.MethodPing, 10); got != 10 {
			t.Errorf("allowed %d of 10 pings", got)
		}
		if got := drain(handler, context.Background(), "tools/list", 2); got != 1 {
			t.Errorf("allowed %d tools/list, want 1", got)
		}
	})

	t.Run("logs rejections", func(t *testing.T) {
		var warned []string
		logger := warnRecorder(func(msg string) { warned = append(warned, msg) })

		handler := middleware.RateLimit(1, 1, middleware.WithRateLimitLogger(logger))(okHandler)
		drain(handler, context.Background(), "tools/list", 2)

		if len(warned) != 1 || warned[0] != "rate limit exceeded" {
			t.Errorf("warnings = %v", warned)
		}
	})

	t.Run("recovers tokens over time", func(t *testing.T) {
		handler := middleware.RateLimit(10, 1)(okHandler)

		if got := drain(handler, context.Background(), "test", 2); got != 1 {
			t.Fatalf("allowed %d, want 1", got)
		}

		time.Sleep(150 * time.Millisecond)

		if _, err := handler(context.Background(), &protocol.Request{Method: "test"}); err != nil {
			t.Fatalf("after recovery: %v", err)
		}
	})
}

func TestRateLimitByMethod(t *testing.T) {
	handler := middleware.RateLimitByMethod(1, 1)(okHandler)

	if got := drain(handler, context.Background(), "tools/list", 2); got != 1 {
		t.Errorf("tools/list allowed %d, want 1", got)
	}
	if got := drain(handler, context.Background(), "resources/list", 2); got != 1 {
		t.Errorf("resources/list allowed %d, want 1", got)
	}
}

func TestRateLimitByClient(t *testing.T) {
	handler := middleware.RateLimitByClient(1, 1)(okHandler)

	alice := protocol.SetRequestMeta(context.Background(), protocol.MetaRemoteAddr, "10.0.0.1:4000")
	bob := protocol.SetRequestMeta(context.Background(), protocol.MetaRemoteAddr, "10.0.0.2:4000")

	if got := drain(handler, alice, "tools/call", 2); got != 1 {
		t.Errorf("alice allowed %d, want 1", got)
	}
	if got := drain(handler, bob, "tools/call", 2); got != 1 {
		t.Errorf("bob allowed %d, want 1", got)
	}
	if got := drain(handler, context.Background(), "tools/call", 2); got != 1 {
		t.Errorf("local allowed %d, want 1", got)
	}
}

func TestClientKey(t *testing.T) {
	if got := middleware.ClientKey(context.Background(), &protocol.Request{}); got != "local" {
		t.Errorf("ClientKey without address = %q, want local", got)
	}
	ctx := protocol.SetRequestMeta(context.Background(), protocol.MetaRemoteAddr, "192.0.2.1:80")
	if got := middleware.ClientKey(ctx, &protocol.Request{}); got != "192.0.2.1:80" {
		t.Errorf("ClientKey = %q", got)
	}
}

func TestRateLimit_Concurrent(t *testing.T) {
	handler := middleware.RateLimit(10, 10)(okHandler)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler(context.Background(), &protocol.Request{Method: "test"})
			if err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed < 5 || allowed > 15 {
		t.Errorf("expected around 10 allowed, got %d", allowed)
	}
}

type warnRecorder func(msg string)

func (w warnRecorder) Info(string, ...middleware.Field)      {}
func (w warnRecorder) Error(string, ...middleware.Field)     {}
func (w warnRecorder) Debug(string, ...middleware.Field)     {}
func (w warnRecorder) Warn(msg string, _ ...middleware.Field) { w(msg) }
