package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := NewRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func TestRedis_SetAndGet(t *testing.T) {
	mr, r := setupTestRedis(t)

	r.Set("https://example.com/a.png", []byte("png-bytes"), time.Minute)

	v, ok := r.Get("https://example.com/a.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), v)
	assert.True(t, mr.Exists(redisKeyPrefix+"https://example.com/a.png"))
}

func TestRedis_Expiration(t *testing.T) {
	mr, r := setupTestRedis(t)

	r.Set("k", "v", time.Second)
	mr.FastForward(2 * time.Second)

	_, ok := r.Get("k")
	assert.False(t, ok)
}

func TestRedis_UnsupportedType(t *testing.T) {
	mr, r := setupTestRedis(t)

	r.Set("k", 123, time.Minute)

	assert.False(t, mr.Exists(redisKeyPrefix+"k"), "保存できない型は無視するのだ")
}

func TestNewRedis_ConnectionError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
