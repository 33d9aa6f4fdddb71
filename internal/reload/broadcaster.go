// Package reload implements C7: the family of ReloadStrategy
// implementations (polling, pub/sub, none) that fan out RuleReloadEvents
// to C6 (cache invalidation) and C8 (bucket purge).
package reload

import (
	"fmt"
	"sync"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// Strategy is C7's public contract. Every implementation is idempotent
// across repeated Start/Stop calls and fans out events synchronously, in
// listener registration order (spec §4.5, §5, §8).
type Strategy interface {
	Start() error
	Stop() error
	TriggerReload(ruleSetID string)
	TriggerReloadAll()
	Subscribe(listener func(rule.RuleReloadEvent))
}

// broadcaster is the shared listener-fanout base every Strategy embeds.
type broadcaster struct {
	mu        sync.Mutex
	listeners []func(rule.RuleReloadEvent)
	logger    logging.Logger
}

func newBroadcaster(logger logging.Logger) broadcaster {
	if logger == nil {
		logger = logging.Noop{}
	}
	return broadcaster{logger: logger}
}

// Subscribe registers listener. Listeners are invoked in registration
// order on every subsequent event.
func (b *broadcaster) Subscribe(listener func(rule.RuleReloadEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// emit fans ev out to every listener. A panicking listener is recovered
// and logged so it cannot halt delivery to the rest (spec §4.5: "Listener
// exceptions must not halt the fan-out").
func (b *broadcaster) emit(ev rule.RuleReloadEvent) {
	b.mu.Lock()
	listeners := make([]func(rule.RuleReloadEvent), len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		b.safeCall(l, ev)
	}
}

func (b *broadcaster) safeCall(listener func(rule.RuleReloadEvent), ev rule.RuleReloadEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("reload listener panicked", fmt.Errorf("%v", r),
				map[string]any{"ruleSetId": ev.RuleSetID, "source": ev.Source})
		}
	}()
	listener(ev)
}

// TriggerReload manually emits a per-rule-set reload event.
func (b *broadcaster) TriggerReload(ruleSetID string) {
	b.emit(rule.RuleReloadEvent{RuleSetID: ruleSetID, Source: rule.ReloadSourceManual, Timestamp: now()})
}

// TriggerReloadAll manually emits a full-reload event.
func (b *broadcaster) TriggerReloadAll() {
	b.emit(rule.RuleReloadEvent{Source: rule.ReloadSourceManual, Timestamp: now()})
}
