package fluxgate

import (
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/faulterr"
)

// Validate checks the invariants New requires before wiring an Engine
// (spec §7 kind 1: configuration errors are fatal and raised at startup).
func (c Config) Validate() error {
	switch c.StoreKind {
	case StoreRedis, StoreMemory, "":
	default:
		return faulterr.NewConfigError("StoreKind", fmt.Errorf("unknown store kind %q", c.StoreKind))
	}

	switch c.RuleStoreKind {
	case RuleStoreMemory, RuleStoreRedis, RuleStorePostgres, "":
	default:
		return faulterr.NewConfigError("RuleStoreKind", fmt.Errorf("unknown rule store kind %q", c.RuleStoreKind))
	}

	switch c.Reload.Strategy {
	case ReloadPolling, ReloadPubSub, ReloadNone, "":
	default:
		return faulterr.NewConfigError("Reload.Strategy", fmt.Errorf("unknown reload strategy %q", c.Reload.Strategy))
	}
	if c.Reload.Strategy == ReloadPubSub && c.Reload.PubSubClient == nil {
		return faulterr.NewConfigError("Reload.PubSubClient", fmt.Errorf("pubsub reload requires a client"))
	}
	if c.Reload.Strategy == ReloadPolling && c.Reload.PollingInterval <= 0 {
		return faulterr.NewConfigError("Reload.PollingInterval", fmt.Errorf("must be positive"))
	}

	if c.Reload.CacheMaxSize <= 0 {
		return faulterr.NewConfigError("Reload.CacheMaxSize", fmt.Errorf("must be positive"))
	}
	if c.Reload.CacheTTL <= 0 {
		return faulterr.NewConfigError("Reload.CacheTTL", fmt.Errorf("must be positive"))
	}

	if c.WaitFor.Enabled {
		if c.WaitFor.MaxWaitTime <= 0 {
			return faulterr.NewConfigError("WaitFor.MaxWaitTime", fmt.Errorf("must be positive"))
		}
		if c.WaitFor.MaxConcurrentWaits <= 0 {
			return faulterr.NewConfigError("WaitFor.MaxConcurrentWaits", fmt.Errorf("must be positive"))
		}
	}

	return nil
}
