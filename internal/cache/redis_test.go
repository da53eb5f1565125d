package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/observability"
)

func TestInitRedis_Empty(t *testing.T) {
	assert.Nil(t, InitRedis(""))
	assert.Nil(t, InitRedis("   "))
}

func TestInitRedis_InvalidURL(t *testing.T) {
	assert.Nil(t, InitRedis("http://localhost:6379"))
}

func TestInitRedis_Connects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr()} {
		client := InitRedis(addr)
		require.NotNil(t, client, addr)
		assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		_ = client.Close()
	}
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	assert.Nil(t, InitRedis(addr))
}

func TestMetricsHook_CountsErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := InitRedis(mr.Addr())
	require.NotNil(t, client)
	defer func() { _ = client.Close() }()

	before := testutil.ToFloat64(observability.RedisErrorRate.WithLabelValues("incr"))
	require.NoError(t, client.Set(context.Background(), "name", "not-a-number", 0).Err())
	assert.Error(t, client.Incr(context.Background(), "name").Err())
	after := testutil.ToFloat64(observability.RedisErrorRate.WithLabelValues("incr"))
	assert.Equal(t, before+1, after)

	// Missing keys are not errors.
	before = testutil.ToFloat64(observability.RedisErrorRate.WithLabelValues("get"))
	_ = client.Get(context.Background(), "missing").Err()
	assert.Equal(t, before, testutil.ToFloat64(observability.RedisErrorRate.WithLabelValues("get")))
}
