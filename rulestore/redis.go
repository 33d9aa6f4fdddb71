package rulestore

import (
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/backends/redis"
)

// RedisConfig configures a Redis-backed Repository, for deployments that
// would rather not stand up Postgres purely to hold rule-set documents.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// NewRedisRepository opens a Redis-backed Repository.
func NewRedisRepository(cfg RedisConfig) (*KVRepository, error) {
	be, err := redis.New(redis.Config{
		RedisURL: cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("rulestore: redis: %w", err)
	}
	return NewKVRepository(be), nil
}
