package bucket

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/faulterr"
)

//go:embed script.lua
var tryConsumeScript string

// connErrorStrings distinguishes connectivity failures from operational
// ones (NOSCRIPT, WRONGTYPE) so only the former trips the breaker/opens a
// HealthError, per the teacher's backends/redis/conn_errors.go.
var connErrorStrings = []string{
	"connection refused",
	"connection timeout",
	"connection reset",
	"network is unreachable",
	"no such host",
	"timeout",
	"i/o timeout",
	"broken pipe",
	"connection pool exhausted",
}

// RedisConfig configures the Redis-backed Store.
type RedisConfig struct {
	// URI is a redis:// connection string. A comma-separated host list
	// (e.g. "redis://node1:6379,node2:6379,node3:6379") auto-selects
	// cluster mode, per spec §4.2's cluster-topology notes.
	URI string

	Password string
	DB       int
	PoolSize int

	ConnErrorStrings []string
	Breaker          BreakerConfig
	Health           HealthCheckConfig

	// Client lets a caller supply an already-constructed client (tests,
	// or an application sharing one redis.UniversalClient across
	// concerns). Takes precedence over URI when set.
	Client redis.UniversalClient
}

// RedisStore implements Store against Redis/Redis Cluster using the
// embedded atomic token-bucket script.
type RedisStore struct {
	client           redis.UniversalClient
	connErrorStrings []string

	sha          atomic.Value // string
	republishing atomic.Bool

	breaker  *circuitBreaker
	health   *healthChecker
	closed   atomic.Bool
}

var ErrCircuitOpen = errors.New("bucket: redis circuit breaker is open")

// NewRedisStore parses cfg.URI (or uses cfg.Client), publishes the
// token-bucket script, and starts the background health prober.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := cfg.Client
	if client == nil {
		opts, err := parseRedisURI(cfg)
		if err != nil {
			return nil, faulterr.NewConfigError("redis.URI", err)
		}
		client = redis.NewUniversalClient(opts)
	}

	patterns := cfg.ConnErrorStrings
	if patterns == nil {
		patterns = connErrorStrings
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.FailureThreshold == 0 {
		breakerCfg = DefaultBreakerConfig()
	}

	s := &RedisStore{
		client:           client,
		connErrorStrings: patterns,
		breaker:          newCircuitBreaker(breakerCfg),
	}

	if err := s.publishScript(); err != nil {
		return nil, faulterr.NewHealthError("redis:ScriptLoad", err)
	}

	healthOpts := []HealthOption{}
	if cfg.Health.Interval != 0 {
		healthOpts = append(healthOpts, WithHealthInterval(cfg.Health.Interval))
	}
	if cfg.Health.Timeout != 0 {
		healthOpts = append(healthOpts, WithHealthTimeout(cfg.Health.Timeout))
	}
	s.health = newHealthChecker(s.Ping, s.breaker.Close, healthOpts...)
	s.health.Start()

	return s, nil
}

// parseRedisURI builds *redis.UniversalOptions from cfg.URI. A
// comma-separated host list switches to cluster routing automatically,
// matching UniversalClient's own selection rule (len(Addrs) > 1 ⇒ cluster
// client).
func parseRedisURI(cfg RedisConfig) (*redis.UniversalOptions, error) {
	if cfg.URI == "" {
		return nil, errors.New("redis URI must not be empty")
	}

	trimmed := strings.TrimPrefix(cfg.URI, "redis://")
	trimmed = strings.TrimPrefix(trimmed, "rediss://")

	if !strings.Contains(trimmed, ",") {
		single, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("parse redis URI: %w", err)
		}
		opts := &redis.UniversalOptions{
			Addrs:    []string{single.Addr},
			Password: single.Password,
			DB:       single.DB,
		}
		applyOverrides(opts, cfg)
		return opts, nil
	}

	// Cluster: split the host-list segment. Per-node auth is stripped from
	// every address; credentials are expected to be uniform across nodes
	// and supplied via cfg.Password/cfg.DB instead.
	parts := strings.Split(trimmed, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		addr := p
		if at := strings.LastIndex(p, "@"); at >= 0 {
			addr = p[at+1:]
		}
		addr = strings.SplitN(addr, "/", 2)[0]
		addrs = append(addrs, addr)
	}

	opts := &redis.UniversalOptions{Addrs: addrs}
	applyOverrides(opts, cfg)
	return opts, nil
}

func applyOverrides(opts *redis.UniversalOptions, cfg RedisConfig) {
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize != 0 {
		opts.PoolSize = cfg.PoolSize
	}
}

func (s *RedisStore) publishScript() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sha, err := s.client.ScriptLoad(ctx, tryConsumeScript).Result()
	if err != nil {
		return fmt.Errorf("script load: %w", err)
	}
	s.sha.Store(sha)
	return nil
}

// scheduleRepublish coalesces concurrent NOSCRIPT recoveries into a single
// background republish, per spec §4.2's "boolean latch" requirement.
func (s *RedisStore) scheduleRepublish() {
	if !s.republishing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.republishing.Store(false)
		_ = s.publishScript()
	}()
}

func isNoScriptErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOSCRIPT")
}

func (s *RedisStore) classify(op string, err error) error {
	return faulterr.MaybeConnError(op, err, s.connErrorStrings)
}
