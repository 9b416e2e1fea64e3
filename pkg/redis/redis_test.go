package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, prefix string) (*miniredis.Miniredis, RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := NewRedisAdapter(t.Name()+"-"+mr.Addr(), prefix, &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func TestRedisAdapter_KeysArePrefixed(t *testing.T) {
	mr, adapter := newTestAdapter(t, "ledger:")
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("ledger:k"))

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, adapter.Del(ctx, "k"))
	_, err = adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, NilError)
}

func TestRedisAdapter_SetNX(t *testing.T) {
	_, adapter := newTestAdapter(t, "")
	ctx := context.Background()

	ok, err := adapter.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := adapter.Exist(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisAdapter_GetRedisReturnsRegisteredInstance(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	name := "named-" + mr.Addr()
	adapter, err := NewRedisAdapter(name, "", &goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)

	assert.Same(t, adapter, GetRedis(name))
}
