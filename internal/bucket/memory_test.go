package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TryConsume_NewBucketStartsFull(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Label: "burst", Capacity: 5, Window: time.Second}
	state, err := store.TryConsume(t.Context(), "fluxgate:rs:r:k:burst", band, 3)
	require.NoError(t, err)
	require.True(t, state.Consumed)
	require.True(t, state.IsNewBucket)
	require.Equal(t, int64(2), state.RemainingTokens)
}

func TestMemoryStore_TryConsume_RejectsWhenExhausted(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Label: "burst", Capacity: 2, Window: time.Second}
	key := "fluxgate:rs:r:k:burst"

	state, err := store.TryConsume(t.Context(), key, band, 2)
	require.NoError(t, err)
	require.True(t, state.Consumed)
	require.Equal(t, int64(0), state.RemainingTokens)

	state, err = store.TryConsume(t.Context(), key, band, 1)
	require.NoError(t, err)
	require.False(t, state.Consumed)
	require.False(t, state.IsNewBucket)
	require.Greater(t, state.NanosToWaitForRefill, int64(0))
}

func TestMemoryStore_TryConsume_RefillsOverTime(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Label: "burst", Capacity: 10, Window: 100 * time.Millisecond}
	key := "fluxgate:rs:r:k:burst"

	state, err := store.TryConsume(t.Context(), key, band, 10)
	require.NoError(t, err)
	require.True(t, state.Consumed)
	require.Equal(t, int64(0), state.RemainingTokens)

	time.Sleep(60 * time.Millisecond)

	state, err = store.TryConsume(t.Context(), key, band, 1)
	require.NoError(t, err)
	require.True(t, state.Consumed)
	require.GreaterOrEqual(t, state.RemainingTokens, int64(3))
}

func TestMemoryStore_TryConsume_RejectionDoesNotPersistRefill(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Label: "burst", Capacity: 1, Window: time.Hour}
	key := "fluxgate:rs:r:k:burst"

	state, err := store.TryConsume(t.Context(), key, band, 1)
	require.NoError(t, err)
	require.True(t, state.Consumed)

	_, err = store.TryConsume(t.Context(), key, band, 1)
	require.NoError(t, err)

	v, ok := store.values.Load(key)
	require.True(t, ok)
	b := v.(*memoryBucket)
	require.Equal(t, int64(0), b.tokens)
}

func TestMemoryStore_TryConsume_InvalidArgs(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	_, err := store.TryConsume(t.Context(), "k", Band{Capacity: 0, Window: time.Second}, 1)
	require.ErrorIs(t, err, ErrInvalidBand)

	_, err = store.TryConsume(t.Context(), "k", Band{Capacity: 1, Window: time.Second}, 0)
	require.ErrorIs(t, err, ErrInvalidPermits)
}

func TestMemoryStore_DeleteByRuleSet(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Capacity: 5, Window: time.Second}
	_, err := store.TryConsume(t.Context(), "fluxgate:rsA:r1:k:b", band, 1)
	require.NoError(t, err)
	_, err = store.TryConsume(t.Context(), "fluxgate:rsB:r1:k:b", band, 1)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByRuleSet(t.Context(), "rsA"))

	_, ok := store.values.Load("fluxgate:rsA:r1:k:b")
	require.False(t, ok)
	_, ok = store.values.Load("fluxgate:rsB:r1:k:b")
	require.True(t, ok)
}

func TestMemoryStore_DeleteAll(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()

	band := Band{Capacity: 5, Window: time.Second}
	_, err := store.TryConsume(t.Context(), "fluxgate:rsA:r1:k:b", band, 1)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAll(t.Context()))

	_, ok := store.values.Load("fluxgate:rsA:r1:k:b")
	require.False(t, ok)
}

func TestMemoryStore_Ping(t *testing.T) {
	store := NewMemoryStoreWithCleanup(0)
	defer store.Close()
	require.NoError(t, store.Ping(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.Error(t, store.Ping(ctx))
}
