// Package keyresolver implements C3: mapping a RequestContext and a Rule to
// the single string identity key used for that rule's buckets.
package keyresolver

import (
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/utils"
)

const unknownIP = "unknown"

// Resolver is the default rule.KeyResolver. It has no state: every method
// is a pure function of its arguments, so the zero value is ready to use
// and may be shared across every RuleSet.
type Resolver struct{}

// New returns a ready-to-use default Resolver.
func New() *Resolver { return &Resolver{} }

// Resolve implements rule.KeyResolver per the mapping table in spec §4.1.
// Every branch is conservative by design: a missing identity collapses
// many requests into one shared bucket rather than skipping enforcement.
func (Resolver) Resolve(reqCtx rule.RequestContext, r rule.Rule) (string, error) {
	key, err := resolveRaw(reqCtx, r)
	if err != nil {
		return "", err
	}
	if err := utils.ValidateKey(key, "rate-limit key"); err != nil {
		return "", fmt.Errorf("keyresolver: rule %q: %w", r.ID, err)
	}
	return key, nil
}

func resolveRaw(reqCtx rule.RequestContext, r rule.Rule) (string, error) {
	switch r.Scope {
	case rule.ScopeGlobal:
		return "global", nil
	case rule.ScopePerIP:
		return resolveIP(reqCtx), nil
	case rule.ScopePerUser:
		if reqCtx.UserID != "" {
			return reqCtx.UserID, nil
		}
		return resolveIP(reqCtx), nil
	case rule.ScopePerAPIKey:
		if reqCtx.APIKey != "" {
			return reqCtx.APIKey, nil
		}
		return resolveIP(reqCtx), nil
	case rule.ScopeCustom:
		if v, ok := reqCtx.Attributes[r.KeyStrategyID]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s, nil
			}
		}
		return resolveIP(reqCtx), nil
	default:
		return "", fmt.Errorf("keyresolver: unknown scope %q", r.Scope)
	}
}

func resolveIP(reqCtx rule.RequestContext) string {
	if reqCtx.ClientIP != "" {
		return reqCtx.ClientIP
	}
	return unknownIP
}

var _ rule.KeyResolver = Resolver{}
