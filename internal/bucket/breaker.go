package bucket

import (
	"sync/atomic"
	"time"
)

// breakerState represents the circuit breaker state.
type breakerState int32

const (
	stateClosed breakerState = iota
	stateHalfOpen
	stateOpen
)

// BreakerConfig holds configuration for a store's circuit breaker.
type BreakerConfig struct {
	FailureThreshold int32         // consecutive failures before tripping
	RecoveryTimeout  time.Duration // time before a half-open probe is allowed
}

// DefaultBreakerConfig mirrors the teacher's composite breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// circuitBreaker guards a Store from hammering a down coordination store.
// While open, TryConsume short-circuits to a HealthError instead of
// attempting the round trip.
type circuitBreaker struct {
	config       BreakerConfig
	state        int32 // atomic, breakerState
	failureCount int32 // atomic
	openedAt     int64 // atomic, unix nanos
}

func newCircuitBreaker(config BreakerConfig) *circuitBreaker {
	return &circuitBreaker{
		config: config,
		state:  int32(stateClosed),
	}
}

// ShouldTrip records a failure and reports whether it pushed the breaker open.
func (cb *circuitBreaker) ShouldTrip(err error) bool {
	if err == nil {
		return false
	}

	newCount := atomic.AddInt32(&cb.failureCount, 1)
	if newCount >= cb.config.FailureThreshold {
		cb.Open()
		return true
	}
	return false
}

// IsOpen reports whether calls should be short-circuited right now. A half-open
// probe is allowed through exactly once the recovery timeout elapses.
func (cb *circuitBreaker) IsOpen() bool {
	switch breakerState(atomic.LoadInt32(&cb.state)) {
	case stateOpen:
		openedAtNano := atomic.LoadInt64(&cb.openedAt)
		if time.Since(time.Unix(0, openedAtNano)) >= cb.config.RecoveryTimeout {
			if atomic.CompareAndSwapInt32(&cb.state, int32(stateOpen), int32(stateHalfOpen)) {
				return false
			}
		}
		return true
	case stateHalfOpen:
		return false
	default:
		return false
	}
}

func (cb *circuitBreaker) Open() {
	atomic.StoreInt32(&cb.state, int32(stateOpen))
	atomic.StoreInt64(&cb.openedAt, time.Now().UnixNano())
}

func (cb *circuitBreaker) Close() {
	atomic.StoreInt32(&cb.state, int32(stateClosed))
	atomic.StoreInt32(&cb.failureCount, 0)
}

func (cb *circuitBreaker) GetState() breakerState {
	return breakerState(atomic.LoadInt32(&cb.state))
}
