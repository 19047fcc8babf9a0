package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchBalancePopulatesAndReuses(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (BalanceResult, error) {
		calls++
		return BalanceResult{Balance: decimal.RequireFromString("-12.34")}, nil
	}

	first, err := cache.FetchBalance(ctx, KindSupplier, 1, loader)
	require.NoError(t, err)
	require.True(t, first.Balance.Equal(decimal.RequireFromString("-12.34")))
	require.Equal(t, 1, calls)

	second, err := cache.FetchBalance(ctx, KindSupplier, 1, loader)
	require.NoError(t, err)
	require.True(t, second.Balance.Equal(first.Balance))
	require.Equal(t, 1, calls, "second fetch must hit the cache")
}

func TestCacheBumpInvalidatesSnapshots(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (BalanceResult, error) {
		calls++
		return BalanceResult{Balance: decimal.NewFromInt(int64(calls))}, nil
	}

	_, err := cache.FetchBalance(ctx, KindCollector, 9, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))

	result, err := cache.FetchBalance(ctx, KindCollector, 9, loader)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.True(t, result.Balance.Equal(decimal.NewFromInt(2)))
}

func TestCacheKeysAreScopedPerEntity(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loaderFor := func(v int64) func(context.Context) (BalanceResult, error) {
		return func(context.Context) (BalanceResult, error) {
			return BalanceResult{Balance: decimal.NewFromInt(v)}, nil
		}
	}

	a, err := cache.FetchBalance(ctx, KindSupplier, 1, loaderFor(10))
	require.NoError(t, err)
	b, err := cache.FetchBalance(ctx, KindSupplier, 2, loaderFor(20))
	require.NoError(t, err)
	c, err := cache.FetchBalance(ctx, KindCarrier, 1, loaderFor(30))
	require.NoError(t, err)

	require.True(t, a.Balance.Equal(decimal.NewFromInt(10)))
	require.True(t, b.Balance.Equal(decimal.NewFromInt(20)))
	require.True(t, c.Balance.Equal(decimal.NewFromInt(30)))
}

func TestCacheNilClientFallsThroughToLoader(t *testing.T) {
	var cache *Cache
	calls := 0
	loader := func(context.Context) (BalanceResult, error) {
		calls++
		return BalanceResult{Balance: decimal.NewFromInt(1)}, nil
	}

	for i := 0; i < 2; i++ {
		_, err := cache.FetchBalance(context.Background(), KindPartner, 1, loader)
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)
	require.NoError(t, cache.Bump(context.Background()))
}
