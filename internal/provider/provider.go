// Package provider implements C6: a read-through CachingRuleSetProvider
// wrapping the rule repository (C2), invalidated by C7's reload events.
package provider

import (
	"context"
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/rulecache"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/rulestore"
)

// Provider resolves a rule-set id to a *rule.RuleSet, probing the cache
// first and falling back to the repository on a miss (spec §4.4).
type Provider struct {
	cache    *rulecache.Cache
	repo     rulestore.Repository
	resolver rule.KeyResolver
	metrics  rule.MetricsRecorder
}

// New builds a Provider. resolver is attached to every RuleSet it resolves
// (spec's RuleSet.keyResolver field); metrics may be nil.
func New(repo rulestore.Repository, cache *rulecache.Cache, resolver rule.KeyResolver, metrics rule.MetricsRecorder) *Provider {
	return &Provider{cache: cache, repo: repo, resolver: resolver, metrics: metrics}
}

// FindByID implements C6's findById. ok is false (with a nil error) when
// the rule set simply doesn't exist; err is reserved for repository
// failures.
func (p *Provider) FindByID(ctx context.Context, ruleSetID string) (rs *rule.RuleSet, ok bool, err error) {
	if cached, hit := p.cache.Get(ruleSetID); hit {
		return cached, true, nil
	}

	rules, err := p.repo.FindByRuleSetID(ctx, ruleSetID)
	if err != nil {
		if err == rulestore.ErrRuleSetNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("provider: find %q: %w", ruleSetID, err)
	}
	if len(rules) == 0 {
		return nil, false, nil
	}

	resolved := &rule.RuleSet{
		ID:              ruleSetID,
		Rules:           rules,
		KeyResolver:     p.resolver,
		MetricsRecorder: p.metrics,
	}
	p.cache.Set(ruleSetID, resolved)
	return resolved, true, nil
}

// HandleReload is registered as a C7 listener. A per-rule-set event evicts
// just that entry; a full-reload event (empty RuleSetID) clears the whole
// cache. Order relative to C8's listener does not matter (spec §8
// "Invalidation commutativity") since each acts on a disjoint resource
// (cache vs buckets).
func (p *Provider) HandleReload(ev rule.RuleReloadEvent) {
	if ev.IsFullReload() {
		p.cache.Clear()
		return
	}
	p.cache.Evict(ev.RuleSetID)
}
