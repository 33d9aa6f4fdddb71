package bucket

import (
	"context"
	"fmt"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/faulterr"
)

// TryConsume invokes the embedded token-bucket script by digest, falling
// back to full-body EVAL and scheduling a republish on NOSCRIPT, per spec
// §4.2's "Script transport and resilience" clause.
func (s *RedisStore) TryConsume(ctx context.Context, bucketKey string, band Band, permits int64) (BucketState, error) {
	if err := ValidateTryConsume(band, permits); err != nil {
		return BucketState{}, err
	}

	if s.breaker.IsOpen() {
		return BucketState{}, faulterr.NewHealthError("redis:TryConsume", ErrCircuitOpen)
	}

	sha, _ := s.sha.Load().(string)

	raw, err := s.client.EvalSha(ctx, sha, []string{bucketKey},
		band.Capacity, band.Window.Nanoseconds(), permits).Result()

	if isNoScriptErr(err) {
		s.scheduleRepublish()
		raw, err = s.client.Eval(ctx, tryConsumeScript, []string{bucketKey},
			band.Capacity, band.Window.Nanoseconds(), permits).Result()
	}

	if err != nil {
		classified := s.classify("redis:TryConsume", err)
		if faulterr.IsHealthError(classified) {
			s.breaker.ShouldTrip(err)
		}
		return BucketState{}, classified
	}
	s.breaker.Close()

	return decodeBucketState(raw)
}

func decodeBucketState(raw any) (BucketState, error) {
	rows, ok := raw.([]any)
	if !ok || len(rows) != 5 {
		return BucketState{}, faulterr.NewOperationError("redis:TryConsume",
			fmt.Errorf("unexpected script result shape: %#v", raw))
	}

	consumed, err1 := toInt64(rows[0])
	remaining, err2 := toInt64(rows[1])
	waitNanos, err3 := toInt64(rows[2])
	resetMillis, err4 := toInt64(rows[3])
	isNew, err5 := toInt64(rows[4])
	if err := firstErr(err1, err2, err3, err4, err5); err != nil {
		return BucketState{}, faulterr.NewOperationError("redis:TryConsume", err)
	}

	return BucketState{
		Consumed:             consumed == 1,
		RemainingTokens:      remaining,
		NanosToWaitForRefill: waitNanos,
		ResetTimeMillis:      resetMillis,
		IsNewBucket:          isNew == 1,
	}, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// DeleteByRuleSet purges every bucket under fluxgate:{ruleSetID}:* using a
// non-blocking incremental SCAN, never KEYS.
func (s *RedisStore) DeleteByRuleSet(ctx context.Context, ruleSetID string) error {
	return s.scanDelete(ctx, fmt.Sprintf("fluxgate:%s:*", ruleSetID))
}

// DeleteAll purges every bucket this store manages.
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	return s.scanDelete(ctx, "fluxgate:*")
}

func (s *RedisStore) scanDelete(ctx context.Context, pattern string) error {
	var cursor uint64
	const batchSize = 256
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, batchSize).Result()
		if err != nil {
			return s.classify("redis:Scan", err)
		}
		if len(keys) > 0 {
			if err := s.client.Unlink(ctx, keys...).Err(); err != nil {
				return s.classify("redis:Unlink", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.classify("redis:Ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.health.Stop()
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis connection: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
