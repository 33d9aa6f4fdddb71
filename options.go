package fluxgate

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/rulestore"
)

// Option is a functional option for configuring an Engine, following the
// teacher's Option func(*Config) error idiom.
type Option func(*Config) error

// WithRedisStore configures C1 to use Redis/Redis Cluster.
func WithRedisStore(cfg bucket.RedisConfig) Option {
	return func(c *Config) error {
		c.StoreKind = StoreRedis
		c.RedisConfig = cfg
		return nil
	}
}

// WithMemoryStore configures C1 to use the in-process store (default).
func WithMemoryStore() Option {
	return func(c *Config) error {
		c.StoreKind = StoreMemory
		return nil
	}
}

// WithStore injects an already-constructed bucket.Store, e.g. for tests
// or a deployment sharing one client across concerns. Takes precedence
// over StoreKind.
func WithStore(store bucket.Store) Option {
	return func(c *Config) error {
		if store == nil {
			return fmt.Errorf("fluxgate: store cannot be nil")
		}
		c.Store = store
		return nil
	}
}

// WithRuleStoreMemory configures C2 to use the in-process repository
// (default).
func WithRuleStoreMemory() Option {
	return func(c *Config) error {
		c.RuleStoreKind = RuleStoreMemory
		return nil
	}
}

// WithRuleStoreRedis configures C2 to use a Redis-backed repository.
func WithRuleStoreRedis(cfg rulestore.RedisConfig) Option {
	return func(c *Config) error {
		c.RuleStoreKind = RuleStoreRedis
		c.RuleStoreRedis = cfg
		return nil
	}
}

// WithRuleStorePostgres configures C2 to use a Postgres-backed repository.
func WithRuleStorePostgres(cfg rulestore.PostgresConfig) Option {
	return func(c *Config) error {
		c.RuleStoreKind = RuleStorePostgres
		c.RuleStorePostgres = cfg
		return nil
	}
}

// WithRuleRepository injects an already-constructed rulestore.Repository.
// Takes precedence over RuleStoreKind.
func WithRuleRepository(repo rulestore.Repository) Option {
	return func(c *Config) error {
		if repo == nil {
			return fmt.Errorf("fluxgate: rule repository cannot be nil")
		}
		c.RuleRepository = repo
		return nil
	}
}

// WithPollingReload configures C7 to poll the rule repository for changes.
func WithPollingReload(interval, initialDelay time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return fmt.Errorf("fluxgate: polling interval must be positive")
		}
		c.Reload.Strategy = ReloadPolling
		c.Reload.PollingInterval = interval
		c.Reload.PollingInitialDelay = initialDelay
		return nil
	}
}

// WithPubSubReload configures C7 to subscribe to a Redis pub/sub channel
// for reload notifications. client may be the same client the coordination
// store uses, or a dedicated one.
func WithPubSubReload(client redis.UniversalClient, channel string, retryInterval time.Duration) Option {
	return func(c *Config) error {
		if client == nil {
			return fmt.Errorf("fluxgate: pubsub client cannot be nil")
		}
		if channel == "" {
			return fmt.Errorf("fluxgate: pubsub channel cannot be empty")
		}
		c.Reload.Strategy = ReloadPubSub
		c.Reload.PubSubClient = client
		c.Reload.PubSubChannel = channel
		c.Reload.PubSubRetryInterval = retryInterval
		return nil
	}
}

// WithNoReload configures C7 to perform no autonomous reload (default);
// manual TriggerReload/TriggerReloadAll calls still work.
func WithNoReload() Option {
	return func(c *Config) error {
		c.Reload.Strategy = ReloadNone
		return nil
	}
}

// WithRuleCache configures C5's bound and TTL.
func WithRuleCache(maxSize int, ttl time.Duration) Option {
	return func(c *Config) error {
		if maxSize <= 0 {
			return fmt.Errorf("fluxgate: rule cache max size must be positive")
		}
		if ttl <= 0 {
			return fmt.Errorf("fluxgate: rule cache ttl must be positive")
		}
		c.Reload.CacheMaxSize = maxSize
		c.Reload.CacheTTL = ttl
		return nil
	}
}

// WithWaitForRefill sets Config.WaitFor. The Engine does not read it; the HTTP
// filter's wait-for-refill path is configured through httpfilter.Config.
func WithWaitForRefill(maxWait time.Duration, maxConcurrentWaits int) Option {
	return func(c *Config) error {
		if maxWait <= 0 {
			return fmt.Errorf("fluxgate: max wait time must be positive")
		}
		if maxConcurrentWaits <= 0 {
			return fmt.Errorf("fluxgate: max concurrent waits must be positive")
		}
		c.WaitFor = WaitForRefillConfig{Enabled: true, MaxWaitTime: maxWait, MaxConcurrentWaits: maxConcurrentWaits}
		return nil
	}
}

// WithDefaultRuleSetID sets Config.DefaultRuleSetID. The Engine does not read
// it; the HTTP filter takes its rule set id from httpfilter.Config.RuleSetID.
func WithDefaultRuleSetID(id string) Option {
	return func(c *Config) error {
		c.DefaultRuleSetID = id
		return nil
	}
}

// WithOnMissingRuleSetStrategy controls C9's behavior when a rule-set id
// resolves to nothing in C2.
func WithOnMissingRuleSetStrategy(strategy rule.OnMissingRuleSetStrategy) Option {
	return func(c *Config) error {
		if strategy != rule.MissingRuleSetAllow && strategy != rule.MissingRuleSetThrow {
			return fmt.Errorf("fluxgate: unknown OnMissingRuleSetStrategy %q", strategy)
		}
		c.OnMissingRuleSetStrategy = strategy
		return nil
	}
}

// WithMetrics attaches a MetricsRecorder invoked after every verdict.
func WithMetrics(m rule.MetricsRecorder) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// WithLogger overrides the default zerolog-backed ambient logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return fmt.Errorf("fluxgate: logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}
