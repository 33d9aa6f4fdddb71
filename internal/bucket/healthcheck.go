package bucket

import (
	"context"
	"time"
)

// HealthCheckConfig configures the background prober.
type HealthCheckConfig struct {
	Interval time.Duration // probe frequency; <= 0 disables probing (NewRedisStore maps 0 to the default)
	Timeout  time.Duration // per-probe timeout
}

// DefaultHealthCheckConfig mirrors the teacher's healthchecker defaults.
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{
		Interval: 10 * time.Second,
		Timeout:  2 * time.Second,
	}
}

// HealthOption configures a healthChecker.
type HealthOption func(*HealthCheckConfig)

func WithHealthInterval(interval time.Duration) HealthOption {
	return func(c *HealthCheckConfig) { c.Interval = interval }
}

func WithHealthTimeout(timeout time.Duration) HealthOption {
	return func(c *HealthCheckConfig) { c.Timeout = timeout }
}

// healthChecker periodically pings a Store and closes its circuit breaker on
// recovery. It is the supplemented C1 resilience feature described in
// SPEC_FULL.md: spec §6 asks for a health probe on the store API but leaves
// its wiring unspecified.
type healthChecker struct {
	ping     func(ctx context.Context) error
	config   HealthCheckConfig
	stopChan chan struct{}
	onHealthy func()
}

func newHealthChecker(ping func(ctx context.Context) error, onHealthy func(), opts ...HealthOption) *healthChecker {
	cfg := DefaultHealthCheckConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &healthChecker{
		ping:      ping,
		config:    cfg,
		stopChan:  make(chan struct{}, 1),
		onHealthy: onHealthy,
	}
}

// Start begins background probing. No-op if Interval <= 0.
func (h *healthChecker) Start() {
	if h.config.Interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(h.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.probe()
			case <-h.stopChan:
				return
			}
		}
	}()
}

// Stop signals the probing goroutine to exit. Safe to call more than once.
func (h *healthChecker) Stop() {
	select {
	case h.stopChan <- struct{}{}:
	default:
	}
}

func (h *healthChecker) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := h.ping(ctx); err == nil && h.onHealthy != nil {
		h.onHealthy()
	}
}
