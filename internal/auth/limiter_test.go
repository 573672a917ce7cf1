package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/shared"
	_ "github.com/coursehub/coursehub/testing"
)

func newLimiterFixture(t *testing.T, maxAttempts int, window time.Duration) (*RedisAttemptLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAttemptLimiter(client, maxAttempts, window), mr
}

func TestLimiterAllowsUnderBudget(t *testing.T) {
	limiter, _ := newLimiterFixture(t, 3, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, "email:a@b.c"))
	require.NoError(t, limiter.RecordFailure(ctx, "email:a@b.c"))
	require.NoError(t, limiter.RecordFailure(ctx, "email:a@b.c"))
	require.NoError(t, limiter.Check(ctx, "email:a@b.c"))
}

func TestLimiterLocksOverBudget(t *testing.T) {
	limiter, _ := newLimiterFixture(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "email:a@b.c"))
	}
	require.ErrorIs(t, limiter.Check(ctx, "email:a@b.c"), shared.ErrTooManyAttempts)

	// Other keys stay unaffected.
	require.NoError(t, limiter.Check(ctx, "email:x@y.z"))
}

func TestLimiterResetClearsLockout(t *testing.T) {
	limiter, _ := newLimiterFixture(t, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "number:S2612345"))
	require.NoError(t, limiter.RecordFailure(ctx, "number:S2612345"))
	require.ErrorIs(t, limiter.Check(ctx, "number:S2612345"), shared.ErrTooManyAttempts)

	require.NoError(t, limiter.Reset(ctx, "number:S2612345"))
	require.NoError(t, limiter.Check(ctx, "number:S2612345"))
}

func TestLimiterWindowExpires(t *testing.T) {
	limiter, mr := newLimiterFixture(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "email:a@b.c"))
	require.ErrorIs(t, limiter.Check(ctx, "email:a@b.c"), shared.ErrTooManyAttempts)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, limiter.Check(ctx, "email:a@b.c"))
}
