package fluxgate

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
	"github.com/OpenFluxGate/fluxgate-sub000/rulestore"
)

// StoreKind selects C1's coordination-store binding.
type StoreKind string

const (
	StoreRedis  StoreKind = "redis"
	StoreMemory StoreKind = "memory"
)

// RuleStoreKind selects C2's rule-repository binding.
type RuleStoreKind string

const (
	RuleStoreMemory   RuleStoreKind = "memory"
	RuleStoreRedis    RuleStoreKind = "redis"
	RuleStorePostgres RuleStoreKind = "postgres"
)

// ReloadKind selects C7's reload strategy, per spec §6's `reload.strategy`.
type ReloadKind string

const (
	ReloadPolling ReloadKind = "POLLING"
	ReloadPubSub  ReloadKind = "PUBSUB"
	ReloadNone    ReloadKind = "NONE"
)

// WaitForRefillConfig is spec §6's `ratelimit.wait-for-refill.*` surface.
// New validates it and keeps it on Config; the Engine does not read it, and
// httpfilter takes its own httpfilter.WaitForRefillConfig.
type WaitForRefillConfig struct {
	Enabled            bool
	MaxWaitTime        time.Duration
	MaxConcurrentWaits int
}

// ReloadConfig is spec §6's `reload.*` surface.
type ReloadConfig struct {
	Strategy            ReloadKind
	PollingInterval     time.Duration
	PollingInitialDelay time.Duration
	PubSubClient        redis.UniversalClient
	PubSubChannel       string
	PubSubRetryInterval time.Duration
	CacheTTL            time.Duration
	CacheMaxSize        int
}

// Config is fluxgate's complete configuration surface (spec §6). Build one
// with New's functional options rather than constructing it directly.
type Config struct {
	// StoreKind/RedisConfig/Store select or supply C1's coordination
	// store. Store, if set, takes precedence over StoreKind.
	StoreKind   StoreKind
	RedisConfig bucket.RedisConfig
	Store       bucket.Store

	// RuleStoreKind/RuleStoreRedis/RuleStorePostgres/RuleRepository select or
	// supply C2's rule repository. RuleRepository, if set, takes
	// precedence over RuleStoreKind.
	RuleStoreKind       RuleStoreKind
	RuleStoreRedis      rulestore.RedisConfig
	RuleStorePostgres   rulestore.PostgresConfig
	RuleRepository      rulestore.Repository

	Reload   ReloadConfig
	WaitFor  WaitForRefillConfig

	DefaultRuleSetID         string
	OnMissingRuleSetStrategy rule.OnMissingRuleSetStrategy

	Metrics rule.MetricsRecorder
	Logger  logging.Logger
}

// defaultConfig returns spec §6's documented defaults.
func defaultConfig() Config {
	return Config{
		StoreKind:     StoreMemory,
		RuleStoreKind: RuleStoreMemory,
		Reload: ReloadConfig{
			Strategy:            ReloadNone,
			PollingInterval:     30 * time.Second,
			PollingInitialDelay: 10 * time.Second,
			PubSubChannel:       "fluxgate:rule-reload",
			PubSubRetryInterval: 5 * time.Second,
			CacheTTL:            5 * time.Minute,
			CacheMaxSize:        1000,
		},
		WaitFor: WaitForRefillConfig{
			Enabled:            false,
			MaxWaitTime:        5 * time.Second,
			MaxConcurrentWaits: 100,
		},
		OnMissingRuleSetStrategy: rule.MissingRuleSetAllow,
	}
}
