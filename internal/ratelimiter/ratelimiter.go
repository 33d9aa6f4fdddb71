// Package ratelimiter implements C4: evaluating a rule set against one
// request by composing per-rule, per-band calls into the coordination
// store.
package ratelimiter

import (
	"context"
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// RateLimiter composes C1 (bucket.Store) and C3 (rule.KeyResolver) per
// spec §4.3's fail-fast algorithm.
type RateLimiter struct {
	store bucket.Store
}

// New builds a RateLimiter against store.
func New(store bucket.Store) *RateLimiter {
	return &RateLimiter{store: store}
}

// TryConsume evaluates every enabled rule in rs, in order, against reqCtx.
// It stops at the first rule/band that rejects: buckets for rules strictly
// after the rejecting one are never touched (spec §4.3, §8 "Fail-fast").
func (l *RateLimiter) TryConsume(ctx context.Context, reqCtx rule.RequestContext, rs *rule.RuleSet, permits int64) (rule.RateLimitResult, error) {
	if rs == nil || len(rs.Rules) == 0 {
		return rule.RateLimitResult{Allowed: true}, nil
	}

	resolver := rs.KeyResolver
	if resolver == nil {
		return rule.RateLimitResult{}, fmt.Errorf("ratelimiter: rule set %q has no KeyResolver", rs.ID)
	}

	var (
		haveMin    bool
		minRemain  int64
	)

	for i := range rs.Rules {
		r := rs.Rules[i]
		if !r.Enabled {
			continue
		}

		key, err := resolver.Resolve(reqCtx, r)
		if err != nil {
			return rule.RateLimitResult{}, fmt.Errorf("ratelimiter: resolve key for rule %q: %w", r.ID, err)
		}
		if key == "" {
			return rule.RateLimitResult{}, fmt.Errorf("ratelimiter: rule %q resolved to an empty key", r.ID)
		}

		for _, band := range r.Bands {
			bucketKey := rule.BucketKey(rs.ID, r.ID, key, band.Label)

			state, err := l.store.TryConsume(ctx, bucketKey, bucket.Band{
				Label:    band.Label,
				Capacity: band.Capacity,
				Window:   band.Window,
			}, permits)
			if err != nil {
				return rule.RateLimitResult{}, fmt.Errorf("ratelimiter: rule %q band %q: %w", r.ID, band.Label, err)
			}

			if !haveMin || state.RemainingTokens < minRemain {
				minRemain = state.RemainingTokens
				haveMin = true
			}

			if !state.Consumed {
				ruleCopy := r
				result := rule.RateLimitResult{
					Allowed:              false,
					MatchedRule:          &ruleCopy,
					MatchedKey:           key,
					RemainingTokens:      minRemain,
					NanosToWaitForRefill: state.NanosToWaitForRefill,
					Policy:               r.OnLimitExceedPolicy,
				}
				l.recordVerdict(rs, result)
				return result, nil
			}
		}
	}

	result := rule.RateLimitResult{
		Allowed:         true,
		RemainingTokens: minRemain,
	}
	l.recordVerdict(rs, result)
	return result, nil
}

func (l *RateLimiter) recordVerdict(rs *rule.RuleSet, result rule.RateLimitResult) {
	if rs.MetricsRecorder != nil {
		rs.MetricsRecorder.RecordVerdict(rs.ID, result)
	}
}
