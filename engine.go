// Package fluxgate implements C9: the facade that wires C1-C8 together and
// exposes the single Check operation an embedding application calls.
package fluxgate

import (
	"context"
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucketreset"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/faulterr"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/keyresolver"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/provider"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/ratelimiter"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/reload"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/rulecache"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/rulestore"
)

// Engine is C9: the single entry point an embedding application holds.
// It owns the coordination store, the rule repository, the rule cache,
// and (if configured) a background reload strategy; Close releases all of
// them.
type Engine struct {
	config Config
	logger logging.Logger

	store      bucket.Store
	repo       rulestore.Repository
	cache      *rulecache.Cache
	provider   *provider.Provider
	limiter    *ratelimiter.RateLimiter
	reload     reload.Strategy
	bucketRst  *bucketreset.Handler

	ownsStore bool
	ownsRepo  bool
}

// New builds an Engine from opts. Returns a *faulterr.ConfigError wrapped
// error for any invalid combination of options (spec §7 kind 1).
func New(opts ...Option) (*Engine, error) {
	config := defaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, faulterr.NewConfigError("option", err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefault()
	}

	store, ownsStore, err := buildStore(config)
	if err != nil {
		return nil, err
	}

	repo, ownsRepo, err := buildRuleRepository(config)
	if err != nil {
		if ownsStore {
			_ = store.Close()
		}
		return nil, err
	}

	cache := rulecache.New(config.Reload.CacheMaxSize, config.Reload.CacheTTL)
	resolver := keyresolver.New()
	prov := provider.New(repo, cache, resolver, config.Metrics)
	limiter := ratelimiter.New(store)
	resetHandler := bucketreset.New(store, logger)

	strategy, err := buildReloadStrategy(config, repo, cache, logger)
	if err != nil {
		if ownsRepo {
			if closer, ok := repo.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}
		if ownsStore {
			_ = store.Close()
		}
		return nil, err
	}

	strategy.Subscribe(prov.HandleReload)
	strategy.Subscribe(resetHandler.HandleReload)
	if err := strategy.Start(); err != nil {
		return nil, faulterr.NewConfigError("reload", err)
	}

	return &Engine{
		config:    config,
		logger:    logger,
		store:     store,
		repo:      repo,
		cache:     cache,
		provider:  prov,
		limiter:   limiter,
		reload:    strategy,
		bucketRst: resetHandler,
		ownsStore: ownsStore,
		ownsRepo:  ownsRepo,
	}, nil
}

func buildStore(config Config) (bucket.Store, bool, error) {
	if config.Store != nil {
		return config.Store, false, nil
	}
	switch config.StoreKind {
	case StoreRedis:
		store, err := bucket.NewRedisStore(config.RedisConfig)
		if err != nil {
			return nil, false, err
		}
		return store, true, nil
	case StoreMemory, "":
		return bucket.NewMemoryStore(), true, nil
	default:
		return nil, false, faulterr.NewConfigError("StoreKind", fmt.Errorf("unknown store kind %q", config.StoreKind))
	}
}

func buildRuleRepository(config Config) (rulestore.Repository, bool, error) {
	if config.RuleRepository != nil {
		return config.RuleRepository, false, nil
	}
	switch config.RuleStoreKind {
	case RuleStoreRedis:
		repo, err := rulestore.NewRedisRepository(config.RuleStoreRedis)
		if err != nil {
			return nil, false, err
		}
		return repo, true, nil
	case RuleStorePostgres:
		repo, err := rulestore.NewPostgresRepository(config.RuleStorePostgres)
		if err != nil {
			return nil, false, err
		}
		return repo, true, nil
	case RuleStoreMemory, "":
		return rulestore.NewMemoryRepository(), true, nil
	default:
		return nil, false, faulterr.NewConfigError("RuleStoreKind", fmt.Errorf("unknown rule store kind %q", config.RuleStoreKind))
	}
}

func buildReloadStrategy(config Config, repo rulestore.Repository, cache *rulecache.Cache, logger logging.Logger) (reload.Strategy, error) {
	switch config.Reload.Strategy {
	case ReloadPolling:
		return reload.NewPolling(repo, cache, config.Reload.PollingInterval, config.Reload.PollingInitialDelay, logger), nil
	case ReloadPubSub:
		return reload.NewPubSub(config.Reload.PubSubClient, config.Reload.PubSubChannel, config.Reload.PubSubRetryInterval, logger), nil
	case ReloadNone, "":
		return reload.NewNone(logger), nil
	default:
		return nil, faulterr.NewConfigError("Reload.Strategy", fmt.Errorf("unknown reload strategy %q", config.Reload.Strategy))
	}
}

// Check implements C9's request-path operation (spec §4.7): resolve the
// rule set, apply OnMissingRuleSetStrategy if it's absent, and otherwise
// delegate to C4.
func (e *Engine) Check(ctx context.Context, ruleSetID string, reqCtx rule.RequestContext, permits int64) (rule.RateLimitResult, error) {
	rs, ok, err := e.provider.FindByID(ctx, ruleSetID)
	if err != nil {
		return rule.RateLimitResult{}, fmt.Errorf("fluxgate: resolve rule set %q: %w", ruleSetID, err)
	}
	if !ok {
		if e.config.OnMissingRuleSetStrategy == rule.MissingRuleSetThrow {
			return rule.RateLimitResult{}, fmt.Errorf("fluxgate: rule set %q not found", ruleSetID)
		}
		return rule.RateLimitResult{Allowed: true}, nil
	}
	return e.limiter.TryConsume(ctx, reqCtx, rs, permits)
}

// TriggerReload manually forces a re-read of one rule set, bypassing any
// autonomous reload strategy's own schedule.
func (e *Engine) TriggerReload(ruleSetID string) {
	e.reload.TriggerReload(ruleSetID)
}

// TriggerReloadAll manually forces a full cache clear and bucket purge.
func (e *Engine) TriggerReloadAll() {
	e.reload.TriggerReloadAll()
}

// RuleRepository exposes C2 directly, e.g. for an admin process seeding or
// editing rule sets through the same Engine's connections.
func (e *Engine) RuleRepository() rulestore.Repository {
	return e.repo
}

// CacheStats exposes C5's hit/miss/eviction counters.
func (e *Engine) CacheStats() rulecache.Stats {
	return e.cache.Stats()
}

// Close stops the reload strategy and releases every resource Engine
// constructed itself; injected Store/RuleRepository instances are left
// for the caller to close.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.reload.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if e.ownsStore {
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.ownsRepo {
		if closer, ok := e.repo.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
