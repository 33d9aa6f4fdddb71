package httpfilter

import (
	"net/http"
	"time"

	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// ContextCustomizer is applied, in registration order, after the filter
// builds the base RequestContext from the incoming request (spec §4.8
// step 3); each may override any field.
type ContextCustomizer func(reqCtx *rule.RequestContext, r *http.Request)

// Config is C10's configuration surface (spec §6's `ratelimit.*` keys).
type Config struct {
	// Enabled corresponds to `ratelimit.filter-enabled` (false). A
	// disabled Filter's Middleware is a pure pass-through.
	Enabled bool

	// RuleSetID is `ratelimit.default-rule-set-id`: the rule set every
	// intercepted request is checked against. An empty value makes the
	// filter pass through with a warning (spec §4.8 step 2).
	RuleSetID string

	// IncludePatterns/ExcludePatterns are Ant-style globs (`*`, `**`)
	// matched against the request path (spec §4.8 step 1). Default
	// include is every path; default exclude is none.
	IncludePatterns []string
	ExcludePatterns []string

	// ClientIPHeader/TrustClientIPHeader select how clientIp is derived
	// (spec §4.8 step 3). Defaults: "X-Forwarded-For", true.
	ClientIPHeader      string
	TrustClientIPHeader bool

	// UserIDHeader/APIKeyHeader name the headers userId/apiKey are read
	// from, when present. Defaults: "X-User-Id", "X-API-Key".
	UserIDHeader string
	APIKeyHeader string

	// IncludeHeaders toggles emitting X-RateLimit-* response headers
	// (spec §4.8 step 5). Default true.
	IncludeHeaders bool

	// WaitForRefill is the process-local admission queue (spec §4.8's
	// wait-for-refill path).
	WaitForRefill WaitForRefillConfig

	// Customizers run after the base RequestContext is built.
	Customizers []ContextCustomizer
}

// WaitForRefillConfig mirrors fluxgate.WaitForRefillConfig so httpfilter
// has no dependency on the root package's Config shape.
type WaitForRefillConfig struct {
	Enabled            bool
	MaxWaitTime        time.Duration
	MaxConcurrentWaits int
}

// DefaultConfig returns spec §6's documented defaults for the filter's own
// keys (store/rule-store/reload defaults live in the root package).
func DefaultConfig() Config {
	return Config{
		Enabled:             false,
		IncludePatterns:     []string{"/**"},
		ExcludePatterns:     nil,
		ClientIPHeader:      "X-Forwarded-For",
		TrustClientIPHeader: true,
		UserIDHeader:        "X-User-Id",
		APIKeyHeader:        "X-API-Key",
		IncludeHeaders:      true,
		WaitForRefill: WaitForRefillConfig{
			Enabled:            false,
			MaxWaitTime:        5 * time.Second,
			MaxConcurrentWaits: 100,
		},
	}
}
