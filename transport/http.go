package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// HTTP serves MCP as JSON-RPC over POST /mcp, one request per HTTP
// exchange, with a /health probe.
type HTTP struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64
	corsConfig   *CORSConfig
	shutdown     ShutdownConfig
	logger       middleware.Logger

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
	manager    *ShutdownManager
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithMaxBodyBytes bounds the size of a request body.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxBodyBytes = n
	}
}

// WithHTTPLogger sets the logger for transport events.
func WithHTTPLogger(l middleware.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:         addr,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		maxBodyBytes: 4 * middleware.MB,
		shutdown:     DefaultShutdownConfig(),
		logger:       middleware.NopLogger{},
	}

	for _, opt := range opts {
		opt(h)
	}
	if h.shutdown.Timeout <= 0 {
		h.shutdown.Timeout = DefaultShutdownConfig().Timeout
	}

	h.manager = NewShutdownManager(h.shutdown)
	return h
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the address the server is listening on, once serving.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Serve starts the HTTP server. On cancellation it stops accepting MCP
// requests, waits for in-flight ones to finish, then closes the listener.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}

	srv := &http.Server{
		Handler:      h.Handler(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = srv
	h.mu.Unlock()

	h.logger.Info("http transport listening", middleware.F("addr", h.listenAddr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdown.Timeout)
	defer cancel()

	if err := h.manager.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("in-flight requests abandoned", middleware.F("count", h.manager.InFlightRequests()))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("forcing http transport closed", middleware.F("error", err.Error()))
		_ = srv.Close()
	}
	return nil
}

// Handler returns the http.Handler serving MCP requests through handler.
func (h *HTTP) Handler(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		status, code := "ok", http.StatusOK
		if h.manager.IsDraining() {
			status, code = "draining", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status})
	})

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		h.handleMCP(w, r, handler)
	})

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

func (h *HTTP) handleMCP(w http.ResponseWriter, r *http.Request, handler Handler) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.manager.TrackRequest() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.manager.CompleteRequest()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, protocol.NewErrorResponse(nil,
				protocol.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))))
			return
		}
		writeJSON(w, http.StatusBadRequest, protocol.NewErrorResponse(nil, protocol.NewParseError(err.Error())))
		return
	}

	req, errResp := protocol.ParseRequest(body)
	if errResp != nil {
		writeJSON(w, http.StatusOK, errResp)
		return
	}

	ctx := protocol.ContextWithRequestMeta(r.Context(), requestMeta(r))
	resp := process(ctx, handler, req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestMeta(r *http.Request) protocol.RequestMeta {
	meta := protocol.RequestMeta{
		protocol.MetaTransport:  "http",
		protocol.MetaRemoteAddr: r.RemoteAddr,
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		meta[protocol.MetaRequestID] = id
	}
	if ua := r.UserAgent(); ua != "" {
		meta[protocol.MetaUserAgent] = ua
	}
	return meta
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
