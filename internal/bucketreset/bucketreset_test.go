package bucketreset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

func TestHandler_PerRuleSetPurge(t *testing.T) {
	store := bucket.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()
	band := bucket.Band{Label: "d", Capacity: 10, Window: time.Second}

	_, err := store.TryConsume(ctx, rule.BucketKey("rs1", "r1", "k", "d"), band, 5)
	require.NoError(t, err)
	_, err = store.TryConsume(ctx, rule.BucketKey("rs2", "r1", "k", "d"), band, 5)
	require.NoError(t, err)

	h := New(store, logging.Noop{})
	h.HandleReload(rule.RuleReloadEvent{RuleSetID: "rs1"})

	s1, err := store.TryConsume(ctx, rule.BucketKey("rs1", "r1", "k", "d"), band, 1)
	require.NoError(t, err)
	assert.True(t, s1.IsNewBucket, "rs1's bucket should have been purged and recreated")

	s2, err := store.TryConsume(ctx, rule.BucketKey("rs2", "r1", "k", "d"), band, 1)
	require.NoError(t, err)
	assert.False(t, s2.IsNewBucket, "rs2's bucket should be untouched")
}

func TestHandler_FullReloadPurgesEverything(t *testing.T) {
	store := bucket.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()
	band := bucket.Band{Label: "d", Capacity: 10, Window: time.Second}

	_, err := store.TryConsume(ctx, rule.BucketKey("rs1", "r1", "k", "d"), band, 5)
	require.NoError(t, err)
	_, err = store.TryConsume(ctx, rule.BucketKey("rs2", "r1", "k", "d"), band, 5)
	require.NoError(t, err)

	h := New(store, logging.Noop{})
	h.HandleReload(rule.RuleReloadEvent{})

	for _, key := range []string{
		rule.BucketKey("rs1", "r1", "k", "d"),
		rule.BucketKey("rs2", "r1", "k", "d"),
	} {
		s, err := store.TryConsume(ctx, key, band, 1)
		require.NoError(t, err)
		assert.True(t, s.IsNewBucket)
	}
}
