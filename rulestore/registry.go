package rulestore

import (
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/backends"

	// Blank-imported so each backend's init() registers itself with the
	// backends package registry before NewFromBackendName's first call.
	_ "github.com/OpenFluxGate/fluxgate-sub000/backends/memory"
	_ "github.com/OpenFluxGate/fluxgate-sub000/backends/postgres"
	_ "github.com/OpenFluxGate/fluxgate-sub000/backends/redis"
)

// NewFromBackendName builds a Repository from a backend name registered via
// backends.Register ("memory", "redis", "postgres") rather than a typed
// constructor, for callers that select a backend by configuration string
// (e.g. an admin tool that lets the backend kind be set at deploy time
// alongside the coordination store's own StoreKind).
func NewFromBackendName(name string, config any) (*KVRepository, error) {
	be, err := backends.Create(name, config)
	if err != nil {
		return nil, fmt.Errorf("rulestore: %q: %w", name, err)
	}
	return NewKVRepository(be), nil
}
