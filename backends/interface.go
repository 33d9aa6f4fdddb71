package backends

import (
	"context"
	"time"
)

// Backend is the generic key/value storage contract shared by every
// concrete store (memory, Redis, Postgres) that can back a RuleRepository
// document store. It intentionally knows nothing about rules or rate
// limits: values are opaque strings, which rulestore.KVRepository uses to
// hold JSON-encoded rule-set documents.
type Backend interface {
	// Get returns the stored value for key, or "" with a nil error if the
	// key does not exist (mirrors the teacher's backends/redis.Get).
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero expiration means no TTL.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// CheckAndSet performs compare-and-swap: it writes newValue only if
	// the current value equals oldValue ("" meaning "key must not
	// exist"). Used by rulestore's admin write path to avoid clobbering
	// concurrent rule edits.
	CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error)

	// Close releases resources held by the backend.
	Close() error
}
