// Package admin serves operational endpoints next to the MCP transport:
// a health probe, Prometheus metrics and a capability listing.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/server"
)

// Capabilities is the body of GET /capabilities.
type Capabilities struct {
	Server    server.Manifest               `json:"server"`
	Tools     []protocol.ToolDescriptor     `json:"tools"`
	Resources []protocol.ResourceDescriptor `json:"resources"`
}

// Server is the admin HTTP server.
type Server struct {
	addr     string
	mcp      *server.Server
	gatherer prometheus.Gatherer
	logger   middleware.Logger

	mu         sync.RWMutex
	listenAddr string
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry /metrics exposes.
// The default is prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger for access and lifecycle logs.
func WithLogger(l middleware.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates an admin server for mcp listening on addr.
func New(addr string, mcp *server.Server, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		mcp:      mcp,
		gatherer: prometheus.DefaultGatherer,
		logger:   middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAddr returns the address the server is listening on, once serving.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenAddr
}

// Handler returns the gin engine serving the admin routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	r.GET("/capabilities", s.handleCapabilities)

	return r
}

func (s *Server) handleCapabilities(c *gin.Context) {
	d := s.mcp.Dispatcher()
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, Capabilities{
		Server:    s.mcp.Manifest(),
		Tools:     d.ListTools(ctx).Tools,
		Resources: d.ListResources(ctx).Resources,
	})
}

// accessLog logs through the server logger; gin's own logger writes to
// stdout, which the stdio transport owns.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("admin request",
			middleware.F("method", c.Request.Method),
			middleware.F("path", c.Request.URL.Path),
			middleware.F("status", c.Writer.Status()),
			middleware.F("duration", time.Since(start)),
		)
	}
}

// Serve runs the admin server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("admin: failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listenAddr = listener.Addr().String()
	s.mu.Unlock()
	s.logger.Info("admin server listening", middleware.F("addr", listener.Addr().String()))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	return nil
}
