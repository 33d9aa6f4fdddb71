package httpfilter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/utils"
)

// Filter is C10: it intercepts HTTP requests, builds a RequestContext,
// dispatches it to a Handler, and translates the verdict into response
// headers and (on rejection) a 429 (spec §4.8).
type Filter struct {
	config  Config
	handler Handler
	logger  logging.Logger
	sem     *semaphore.Weighted
}

// New builds a Filter. logger may be nil (defaults to a noop).
func New(handler Handler, config Config, logger logging.Logger) *Filter {
	if logger == nil {
		logger = logging.Noop{}
	}
	f := &Filter{config: config, handler: handler, logger: logger}
	if config.WaitForRefill.Enabled && config.WaitForRefill.MaxConcurrentWaits > 0 {
		f.sem = semaphore.NewWeighted(int64(config.WaitForRefill.MaxConcurrentWaits))
	}
	return f
}

// Middleware wraps next with C10's interception logic, for use with the
// standard library's net/http.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.shouldIntercept(r) {
			next.ServeHTTP(w, r)
			return
		}
		if f.config.RuleSetID == "" {
			f.logger.Warn("httpfilter: no rule set configured for this filter, passing through", map[string]any{"path": r.URL.Path})
			next.ServeHTTP(w, r)
			return
		}

		reqCtx := f.buildRequestContext(r)
		result, err := f.handler.Check(r.Context(), f.config.RuleSetID, reqCtx)
		if err != nil {
			f.logger.Error("httpfilter: handler check failed, failing open", err,
				map[string]any{"ruleSetId": f.config.RuleSetID, "path": r.URL.Path})
			next.ServeHTTP(w, r)
			return
		}

		if f.config.IncludeHeaders {
			f.writeHeaders(w, result)
		}

		if result.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		if result.Policy == rule.PolicyWaitForRefill && f.config.WaitForRefill.Enabled {
			if f.wait(r.Context(), result) {
				retried, err := f.handler.Check(r.Context(), f.config.RuleSetID, reqCtx)
				if err != nil {
					f.logger.Error("httpfilter: handler re-check after wait failed, failing open", err,
						map[string]any{"ruleSetId": f.config.RuleSetID, "path": r.URL.Path})
					next.ServeHTTP(w, r)
					return
				}
				if f.config.IncludeHeaders {
					f.writeHeaders(w, retried)
				}
				if retried.Allowed {
					next.ServeHTTP(w, r)
					return
				}
				f.reject(w, retried)
				return
			}
		}

		f.reject(w, result)
	})
}

// shouldIntercept implements spec §4.8 step 1.
func (f *Filter) shouldIntercept(r *http.Request) bool {
	if !f.config.Enabled {
		return false
	}
	path := r.URL.Path
	for _, pattern := range f.config.ExcludePatterns {
		if matchPath(pattern, path) {
			return false
		}
	}
	if len(f.config.IncludePatterns) == 0 {
		return true
	}
	for _, pattern := range f.config.IncludePatterns {
		if matchPath(pattern, path) {
			return true
		}
	}
	return false
}

func matchPath(pattern, path string) bool {
	pattern = strings.TrimPrefix(pattern, "/")
	path = strings.TrimPrefix(path, "/")
	ok, _ := doublestar.Match(pattern, path)
	return ok
}

// buildRequestContext implements spec §4.8 step 3.
func (f *Filter) buildRequestContext(r *http.Request) rule.RequestContext {
	reqCtx := rule.RequestContext{
		ClientIP:   f.resolveClientIP(r),
		Endpoint:   r.URL.Path,
		Method:     r.Method,
		Headers:    make(map[string]string, len(r.Header)),
		Attributes: make(map[string]any),
	}
	for name := range r.Header {
		reqCtx.Headers[name] = r.Header.Get(name)
	}
	if f.config.UserIDHeader != "" {
		reqCtx.UserID = r.Header.Get(f.config.UserIDHeader)
	}
	if f.config.APIKeyHeader != "" {
		reqCtx.APIKey = r.Header.Get(f.config.APIKeyHeader)
	}
	for _, customize := range f.config.Customizers {
		customize(&reqCtx, r)
	}
	return reqCtx
}

func (f *Filter) resolveClientIP(r *http.Request) string {
	if f.config.TrustClientIPHeader && f.config.ClientIPHeader != "" {
		if v := r.Header.Get(f.config.ClientIPHeader); v != "" {
			first := strings.SplitN(v, ",", 2)[0]
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeHeaders implements spec §4.8 step 5, including the adopted Open
// Question decision to omit X-RateLimit-Reset when the request wasn't
// actually constrained (no wait time reported).
func (f *Filter) writeHeaders(w http.ResponseWriter, result rule.RateLimitResult) {
	header := w.Header()
	if result.MatchedRule != nil && len(result.MatchedRule.Bands) > 0 {
		header.Set("X-RateLimit-Limit", strconv.FormatInt(result.MatchedRule.Bands[0].Capacity, 10))
	}
	if result.RemainingTokens >= 0 {
		header.Set("X-RateLimit-Remaining", strconv.FormatInt(result.RemainingTokens, 10))
	}
	if result.NanosToWaitForRefill > 0 {
		resetAt := time.Now().Add(time.Duration(result.NanosToWaitForRefill)).Unix()
		header.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
	}
}

// reject implements spec §4.8 step 6's otherwise branch.
func (f *Filter) reject(w http.ResponseWriter, result rule.RateLimitResult) {
	retryAfterSeconds := int64(0)
	if result.NanosToWaitForRefill > 0 {
		retryAfterSeconds = (result.NanosToWaitForRefill + int64(time.Second) - 1) / int64(time.Second)
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"error":"Rate limit exceeded","retryAfter":%d}`, retryAfterSeconds)
}

// wait implements the wait-for-refill path (spec §4.8). It reports
// whether the caller should re-invoke the handler; false always means
// "reject immediately".
func (f *Filter) wait(ctx context.Context, result rule.RateLimitResult) bool {
	if f.sem == nil {
		return false
	}
	if result.NanosToWaitForRefill > int64(f.config.WaitForRefill.MaxWaitTime) {
		return false
	}
	if !f.sem.TryAcquire(1) {
		return false
	}
	defer f.sem.Release(1)

	// threshold 0 means SleepOrWait always honors ctx cancellation, per
	// spec's "an interrupt cancels the wait and rejects".
	if err := utils.SleepOrWait(ctx, time.Duration(result.NanosToWaitForRefill), 0); err != nil {
		return false
	}
	return true
}
