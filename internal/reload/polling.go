package reload

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/rulestore"
)

// CacheSnapshotter is the slice of internal/rulecache.Cache Polling needs:
// the set of rule-set ids currently cached, so it only re-checks sets this
// process actually cares about (spec §4.5).
type CacheSnapshotter interface {
	Snapshot() []string
}

// Polling is the fallback reload strategy for repositories with no native
// change notification (e.g. Postgres): it periodically re-fetches each
// cached rule set and fingerprints it, emitting a reload event only when
// the fingerprint changes (spec §4.5).
type Polling struct {
	broadcaster

	repo         rulestore.Repository
	cache        CacheSnapshotter
	interval     time.Duration
	initialDelay time.Duration

	mu           sync.Mutex
	fingerprints map[string]uint64
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

// NewPolling builds a Polling strategy. interval must be positive;
// initialDelay may be zero to start checking immediately.
func NewPolling(repo rulestore.Repository, cache CacheSnapshotter, interval, initialDelay time.Duration, logger logging.Logger) *Polling {
	return &Polling{
		broadcaster:  newBroadcaster(logger),
		repo:         repo,
		cache:        cache,
		interval:     interval,
		initialDelay: initialDelay,
		fingerprints: make(map[string]uint64),
	}
}

// Start launches the background polling loop. Calling Start twice without
// an intervening Stop is a no-op.
func (p *Polling) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(stopCh)
	return nil
}

// Stop halts the background loop. Safe to call even if Start was never
// called or was already stopped.
func (p *Polling) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Polling) loop(stopCh chan struct{}) {
	defer p.wg.Done()

	if p.initialDelay > 0 {
		select {
		case <-stopCh:
			return
		case <-time.After(p.initialDelay):
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.checkAll()
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
	}
}

func (p *Polling) checkAll() {
	for _, id := range p.cache.Snapshot() {
		p.checkOne(id)
	}
}

func (p *Polling) checkOne(ruleSetID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rules, err := p.repo.FindByRuleSetID(ctx, ruleSetID)
	if err != nil {
		if err == rulestore.ErrRuleSetNotFound {
			p.mu.Lock()
			_, known := p.fingerprints[ruleSetID]
			delete(p.fingerprints, ruleSetID)
			p.mu.Unlock()
			if known {
				p.emit(rule.RuleReloadEvent{
					RuleSetID: ruleSetID,
					Source:    rule.ReloadSourcePolling,
					Timestamp: now(),
					Metadata:  map[string]string{"reason": "disappeared"},
				})
			}
			return
		}
		p.logger.Warn("reload: polling fetch failed", map[string]any{"ruleSetId": ruleSetID, "error": err.Error()})
		return
	}

	fp := fingerprint(ruleSetID, rules)

	p.mu.Lock()
	prev, known := p.fingerprints[ruleSetID]
	p.fingerprints[ruleSetID] = fp
	p.mu.Unlock()

	if known && prev != fp {
		p.emit(rule.RuleReloadEvent{RuleSetID: ruleSetID, Source: rule.ReloadSourcePolling, Timestamp: now()})
	}
}

// fingerprint deterministically hashes ruleSetID's rule content. Map-typed
// rule.Rule.Attributes fields are marshaled with sorted keys by
// encoding/json, so equal rule sets always hash equal regardless of map
// iteration order.
func fingerprint(ruleSetID string, rules []rule.Rule) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(ruleSetID)
	encoded, err := json.Marshal(rules)
	if err == nil {
		_, _ = h.Write(encoded)
	}
	return h.Sum64()
}

var _ Strategy = (*Polling)(nil)
