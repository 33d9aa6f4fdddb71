package httpfilter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

type fakeHandler struct {
	result rule.RateLimitResult
	err    error
	calls  int
}

func (f *fakeHandler) Check(_ context.Context, _ string, _ rule.RequestContext) (rule.RateLimitResult, error) {
	f.calls++
	return f.result, f.err
}

func passThroughNext() (http.Handler, *bool) {
	called := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}), called
}

func TestFilter_DisabledPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	f := New(&fakeHandler{}, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFilter_ExcludePatternPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	cfg.ExcludePatterns = []string{"/health/**"}
	h := &fakeHandler{result: rule.RateLimitResult{Allowed: false}}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.True(t, *called)
	assert.Equal(t, 0, h.calls)
}

func TestFilter_NoRuleSetConfiguredPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	f := New(&fakeHandler{}, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.True(t, *called)
}

func TestFilter_AllowedSetsHeadersAndContinues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	h := &fakeHandler{result: rule.RateLimitResult{
		Allowed:         true,
		RemainingTokens: 4,
		MatchedRule:     &rule.Rule{Bands: []rule.Band{{Capacity: 5}}},
	}}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.True(t, *called)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Reset"), "unconstrained request should omit reset")
}

func TestFilter_RejectedEmits429WithBody(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	h := &fakeHandler{result: rule.RateLimitResult{
		Allowed:              false,
		Policy:               rule.PolicyRejectRequest,
		NanosToWaitForRefill: int64(2500 * time.Millisecond),
		RemainingTokens:      0,
	}}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.False(t, *called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, float64(3), body["retryAfter"])
}

func TestFilter_HandlerErrorFailsOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	h := &fakeHandler{err: assert.AnError}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFilter_ClientIPFromTrustedHeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"

	var captured rule.RequestContext
	h := &capturingHandler{result: rule.RateLimitResult{Allowed: true}, capture: &captured}
	f := New(h, cfg, logging.Noop{})

	next, _ := passThroughNext()
	r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, r)

	assert.Equal(t, "203.0.113.9", captured.ClientIP)
}

type capturingHandler struct {
	result  rule.RateLimitResult
	capture *rule.RequestContext
}

func (c *capturingHandler) Check(_ context.Context, _ string, reqCtx rule.RequestContext) (rule.RateLimitResult, error) {
	*c.capture = reqCtx
	return c.result, nil
}

func TestFilter_WaitForRefillRetriesThenAllows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	cfg.WaitForRefill = WaitForRefillConfig{Enabled: true, MaxWaitTime: time.Second, MaxConcurrentWaits: 2}

	h := &sequencedHandler{
		results: []rule.RateLimitResult{
			{Allowed: false, Policy: rule.PolicyWaitForRefill, NanosToWaitForRefill: int64(10 * time.Millisecond)},
			{Allowed: true, RemainingTokens: 1},
		},
	}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.True(t, *called)
	assert.Equal(t, 2, h.calls)
}

func TestFilter_WaitForRefillExceedsMaxWaitRejectsImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RuleSetID = "rs1"
	cfg.WaitForRefill = WaitForRefillConfig{Enabled: true, MaxWaitTime: time.Millisecond, MaxConcurrentWaits: 2}

	h := &sequencedHandler{results: []rule.RateLimitResult{
		{Allowed: false, Policy: rule.PolicyWaitForRefill, NanosToWaitForRefill: int64(time.Hour)},
	}}
	f := New(h, cfg, logging.Noop{})

	next, called := passThroughNext()
	rec := httptest.NewRecorder()
	f.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.False(t, *called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, h.calls)
}

type sequencedHandler struct {
	results []rule.RateLimitResult
	calls   int
}

func (s *sequencedHandler) Check(_ context.Context, _ string, _ rule.RequestContext) (rule.RateLimitResult, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i], nil
}
