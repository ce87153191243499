package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownConfig configures graceful shutdown of the HTTP transport.
type ShutdownConfig struct {
	// Timeout bounds the wait for in-flight requests. Default 30s.
	Timeout time.Duration

	// DrainDelay keeps accepting requests for a while after shutdown
	// starts, so load balancers can take the instance out first.
	DrainDelay time.Duration

	OnShutdownStart    func()
	OnDrainStart       func()
	OnShutdownComplete func(err error)
}

// DefaultShutdownConfig returns the default shutdown configuration.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{Timeout: 30 * time.Second}
}

// ShutdownManager tracks in-flight requests and drains them on shutdown.
type ShutdownManager struct {
	config ShutdownConfig

	draining  atomic.Bool
	inFlight  atomic.Int64
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewShutdownManager creates a new shutdown manager.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout <= 0 {
		config.Timeout = DefaultShutdownConfig().Timeout
	}
	return &ShutdownManager{
		config: config,
		doneCh: make(chan struct{}),
	}
}

// IsDraining reports whether new requests are being refused.
func (sm *ShutdownManager) IsDraining() bool {
	return sm.draining.Load()
}

// InFlightRequests returns the number of tracked requests still running.
func (sm *ShutdownManager) InFlightRequests() int64 {
	return sm.inFlight.Load()
}

// TrackRequest registers a new request. It returns false while draining,
// in which case the request must be refused and CompleteRequest not called.
func (sm *ShutdownManager) TrackRequest() bool {
	if sm.draining.Load() {
		return false
	}
	sm.inFlight.Add(1)
	return true
}

// CompleteRequest marks a tracked request as finished.
func (sm *ShutdownManager) CompleteRequest() {
	sm.inFlight.Add(-1)
}

// Shutdown starts draining and waits until no request is in flight, the
// configured timeout passes, or ctx ends. It returns an error only when
// requests were still running.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	if sm.config.OnShutdownStart != nil {
		sm.config.OnShutdownStart()
	}

	if sm.config.DrainDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sm.config.DrainDelay):
		}
	}

	sm.draining.Store(true)
	if sm.config.OnDrainStart != nil {
		sm.config.OnDrainStart()
	}

	err := sm.wait(ctx)

	sm.closeOnce.Do(func() { close(sm.doneCh) })
	if sm.config.OnShutdownComplete != nil {
		sm.config.OnShutdownComplete(err)
	}
	return err
}

func (sm *ShutdownManager) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for sm.inFlight.Load() > 0 {
		select {
		case <-ctx.Done():
			if sm.inFlight.Load() > 0 {
				return ctx.Err()
			}
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// Done is closed once Shutdown has finished.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.doneCh
}

// WithShutdownTimeout sets how long the HTTP transport waits for
// in-flight requests on shutdown.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdown.Timeout = d
	}
}

// WithShutdownDrainDelay sets the delay before the HTTP transport starts
// refusing requests on shutdown.
func WithShutdownDrainDelay(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdown.DrainDelay = d
	}
}
