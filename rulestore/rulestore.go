// Package rulestore implements C2: the durable rule-document store the
// core treats as an external collaborator, reached only through the
// Repository contract. KVRepository is a generic implementation built on
// any backends.Backend (memory, Redis, Postgres), storing each rule set as
// one JSON document — the "document store" spec §1 describes.
package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/backends"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/healthchecker"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// ErrRuleSetNotFound is returned by Repository.FindByRuleSetID when no
// document exists under the given id.
var ErrRuleSetNotFound = errors.New("rulestore: rule set not found")

// Repository is C2's contract: durable storage of rule definitions, read
// by the core and written only by an external admin process.
type Repository interface {
	// FindByRuleSetID returns the non-empty sequence of rules belonging to
	// ruleSetID, or ErrRuleSetNotFound.
	FindByRuleSetID(ctx context.Context, ruleSetID string) ([]rule.Rule, error)
}

// ruleSetDocument is the JSON shape one rule set is stored as.
type ruleSetDocument struct {
	ID          string      `json:"id"`
	Description string      `json:"description,omitempty"`
	Rules       []rule.Rule `json:"rules"`
}

func documentKey(ruleSetID string) string {
	return "fluxgate:ruleset:" + ruleSetID
}

// KVRepository implements Repository (and an admin write path) over any
// backends.Backend, following the teacher's pattern of one storage
// abstraction serving several concerns via JSON-encoded values.
type KVRepository struct {
	kv     backends.Backend
	health *healthchecker.Checker
}

// KVOption configures optional KVRepository behavior at construction time.
type KVOption func(*KVRepository)

// WithHealthCheck starts a background prober (the teacher's
// internal/healthchecker, originally written against this same
// backends.Backend contract) that periodically exercises kv with a Get
// and calls onHealthy on success. Unlike C1's bucket-side health checker,
// which backs a circuit breaker, this one exists so a caller can observe
// C2's own connection recovering (e.g. to re-arm an alert) independently
// of bucket traffic.
func WithHealthCheck(cfg healthchecker.Config, onHealthy func()) KVOption {
	return func(r *KVRepository) {
		r.health = healthchecker.New(r.kv, cfg, onHealthy)
		r.health.Start()
	}
}

// NewKVRepository wraps kv as a rule-document Repository.
func NewKVRepository(kv backends.Backend, opts ...KVOption) *KVRepository {
	r := &KVRepository{kv: kv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByRuleSetID implements Repository.
func (r *KVRepository) FindByRuleSetID(ctx context.Context, ruleSetID string) ([]rule.Rule, error) {
	raw, err := r.kv.Get(ctx, documentKey(ruleSetID))
	if err != nil {
		return nil, fmt.Errorf("rulestore: get %q: %w", ruleSetID, err)
	}
	if raw == "" {
		return nil, ErrRuleSetNotFound
	}

	var doc ruleSetDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("rulestore: decode %q: %w", ruleSetID, err)
	}
	if len(doc.Rules) == 0 {
		return nil, ErrRuleSetNotFound
	}
	return doc.Rules, nil
}

// PutRuleSet writes (or overwrites) the rule set document for ruleSetID.
// This is an admin operation: the core itself never calls it, but it
// backs local-dev seeding and the in-memory/Postgres test suites.
func (r *KVRepository) PutRuleSet(ctx context.Context, ruleSetID, description string, rules []rule.Rule) error {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return fmt.Errorf("rulestore: %w", err)
		}
	}
	doc := ruleSetDocument{ID: ruleSetID, Description: description, Rules: rules}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rulestore: encode %q: %w", ruleSetID, err)
	}
	if err := r.kv.Set(ctx, documentKey(ruleSetID), string(encoded), 0); err != nil {
		return fmt.Errorf("rulestore: put %q: %w", ruleSetID, err)
	}
	return nil
}

// DeleteRuleSet removes the document for ruleSetID. Deleting a missing
// document is not an error.
func (r *KVRepository) DeleteRuleSet(ctx context.Context, ruleSetID string) error {
	if err := r.kv.Delete(ctx, documentKey(ruleSetID)); err != nil {
		return fmt.Errorf("rulestore: delete %q: %w", ruleSetID, err)
	}
	return nil
}

// Ping exercises the underlying backend for the health prober, when the
// backend implements it (redis/postgres backends embed one via
// backends.HealthError-returning calls; this just round-trips a Get).
func (r *KVRepository) Ping(ctx context.Context) error {
	_, err := r.kv.Get(ctx, "fluxgate:ruleset:__health__")
	return err
}

func (r *KVRepository) Close() error {
	if r.health != nil {
		r.health.Stop()
	}
	return r.kv.Close()
}

var _ Repository = (*KVRepository)(nil)
