package rulestore

import (
	"github.com/OpenFluxGate/fluxgate-sub000/backends/memory"
)

// NewMemoryRepository builds a Repository backed by an in-process map, for
// local development and tests without Redis/Postgres (spec's persistence
// layer is explicitly out of scope, but the teacher treats an in-memory
// backend as a first-class citizen alongside its durable ones).
func NewMemoryRepository() *KVRepository {
	return NewKVRepository(memory.New())
}
