package requestcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCachesWithinTTL(t *testing.T) {
	cache := New(time.Minute)
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return "products", nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.Fetch(context.Background(), "catalog", fn)
		require.NoError(t, err)
		assert.Equal(t, "products", value)
	}
	assert.Equal(t, 1, calls)
}

func TestFetchRefetchesAfterExpiry(t *testing.T) {
	cache := New(time.Minute)
	current := time.Now()
	cache.now = func() time.Time { return current }

	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, err := cache.Fetch(context.Background(), "catalog", fn)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	value, err := cache.Fetch(context.Background(), "catalog", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.Equal(t, 2, calls)
}

func TestErrorsAreNotCached(t *testing.T) {
	cache := New(time.Minute)
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	_, err := cache.Fetch(context.Background(), "catalog", fn)
	require.Error(t, err)

	value, err := cache.Fetch(context.Background(), "catalog", fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	cache := New(time.Minute)
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, _ = cache.Fetch(context.Background(), "catalog", fn)
	cache.Invalidate("catalog")
	_, _ = cache.Fetch(context.Background(), "catalog", fn)

	assert.Equal(t, 2, calls)
}
