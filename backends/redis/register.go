package redis

import (
	"github.com/OpenFluxGate/fluxgate-sub000/backends"
)

func init() {
	backends.Register("redis", func(config any) (backends.Backend, error) {
		redisConfig, ok := config.(Config)
		if !ok {
			return nil, backends.ErrInvalidConfig
		}
		if redisConfig.Addr == "" && redisConfig.RedisURL == "" {
			return nil, backends.ErrInvalidConfig
		}
		return New(redisConfig)
	})
}
