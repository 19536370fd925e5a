package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
)

func testResult(totalTax string) *tax.CalculationResult {
	return &tax.CalculationResult{
		TotalTaxAmount: decimal.RequireFromString(totalTax),
		UserTranID:     "tran-123",
		CalculatedAt:   time.Now(),
	}
}

func TestInMemoryResponseCache_SetGet(t *testing.T) {
	cache := NewInMemoryResponseCache()
	defer cache.Close()

	ctx := context.Background()

	t.Run("miss on unknown token", func(t *testing.T) {
		result, fingerprint, ok := cache.Get(ctx, "unknown-token")
		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Empty(t, fingerprint)
	})

	t.Run("hit returns result and fingerprint", func(t *testing.T) {
		stored := testResult("1.83")
		err := cache.Set(ctx, "token-1", "fp-abc", stored, 1*time.Hour)
		require.NoError(t, err)

		result, fingerprint, ok := cache.Get(ctx, "token-1")
		require.True(t, ok)
		assert.Equal(t, "fp-abc", fingerprint)
		assert.True(t, result.TotalTaxAmount.Equal(decimal.RequireFromString("1.83")))
		assert.Equal(t, "tran-123", result.UserTranID)
	})

	t.Run("set overwrites previous entry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "token-2", "fp-old", testResult("1.00"), 1*time.Hour))
		require.NoError(t, cache.Set(ctx, "token-2", "fp-new", testResult("2.00"), 1*time.Hour))

		result, fingerprint, ok := cache.Get(ctx, "token-2")
		require.True(t, ok)
		assert.Equal(t, "fp-new", fingerprint)
		assert.True(t, result.TotalTaxAmount.Equal(decimal.RequireFromString("2.00")))
	})

	t.Run("miss after expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "token-3", "fp", testResult("1.00"), 10*time.Millisecond))

		time.Sleep(20 * time.Millisecond)

		_, _, ok := cache.Get(ctx, "token-3")
		assert.False(t, ok, "expired entry should be a miss")
	})
}

func TestInMemoryResponseCache_Cleanup(t *testing.T) {
	cache := NewInMemoryResponseCache()
	defer cache.Close()

	ctx := context.Background()

	cache.Set(ctx, "short-lived-1", "fp", testResult("1.00"), 10*time.Millisecond)
	cache.Set(ctx, "short-lived-2", "fp", testResult("1.00"), 10*time.Millisecond)
	cache.Set(ctx, "long-lived", "fp", testResult("1.00"), 1*time.Hour)

	assert.Equal(t, 3, cache.Size())

	// Wait for short-lived entries to expire
	time.Sleep(20 * time.Millisecond)

	// Manually trigger cleanup
	cache.cleanup()

	assert.Equal(t, 1, cache.Size())

	_, _, ok := cache.Get(ctx, "long-lived")
	assert.True(t, ok)
}

func TestInMemoryResponseCache_ConcurrentAccess(t *testing.T) {
	cache := NewInMemoryResponseCache()
	defer cache.Close()

	ctx := context.Background()
	const numGoroutines = 50

	done := make(chan struct{}, numGoroutines*2)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			cache.Set(ctx, "shared-token", "fp", testResult("1.00"), 1*time.Hour)
			done <- struct{}{}
		}()
		go func() {
			cache.Get(ctx, "shared-token")
			done <- struct{}{}
		}()
	}
	for i := 0; i < numGoroutines*2; i++ {
		<-done
	}

	_, _, ok := cache.Get(ctx, "shared-token")
	assert.True(t, ok)
}

func TestInMemoryResponseCache_Close(t *testing.T) {
	cache := NewInMemoryResponseCache()

	assert.NoError(t, cache.Close())
	// Multiple closes should be safe
	assert.NoError(t, cache.Close())
}
