package rulestore

import (
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/backends/postgres"
)

// PostgresConfig configures a Postgres-backed Repository.
type PostgresConfig struct {
	ConnString string
	MaxConns   int32
	MinConns   int32
}

// NewPostgresRepository opens a Postgres-backed Repository, creating its
// key/value table if missing (postgres.Backend's DDL-on-connect policy).
func NewPostgresRepository(cfg PostgresConfig) (*KVRepository, error) {
	be, err := postgres.New(postgres.Config{
		ConnString: cfg.ConnString,
		MaxConns:   cfg.MaxConns,
		MinConns:   cfg.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("rulestore: postgres: %w", err)
	}
	return NewKVRepository(be), nil
}
