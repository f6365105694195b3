package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestFeedCache(t *testing.T) {
	mr, rdb := newTestClient(t)
	cache := NewFeedCache(rdb, core.WrapZap(zap.NewNop()), 30*time.Second)
	ctx := context.Background()

	_, err := cache.GetPublicFeed(ctx)
	assert.ErrorIs(t, err, myErrors.ErrCacheMiss)

	posts := []vo.PostVO{{ID: 1, Slug: "a", Title: "A"}, {ID: 2, Slug: "b", Title: "B"}}
	require.NoError(t, cache.SetPublicFeed(ctx, posts))
	assert.Equal(t, 30*time.Second, mr.TTL(constant.PublicFeedCacheKey))

	got, err := cache.GetPublicFeed(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Slug)

	require.NoError(t, cache.InvalidatePublicFeed(ctx))
	_, err = cache.GetPublicFeed(ctx)
	assert.ErrorIs(t, err, myErrors.ErrCacheMiss)

	t.Run("空列表也会被缓存", func(t *testing.T) {
		require.NoError(t, cache.SetPublicFeed(ctx, nil))
		got, err := cache.GetPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("损坏的缓存按未命中处理并被删除", func(t *testing.T) {
		require.NoError(t, mr.Set(constant.PublicFeedCacheKey, "{not json"))
		_, err := cache.GetPublicFeed(ctx)
		assert.ErrorIs(t, err, myErrors.ErrCacheMiss)
		assert.False(t, mr.Exists(constant.PublicFeedCacheKey))
	})

	t.Run("过期后未命中", func(t *testing.T) {
		require.NoError(t, cache.SetPublicFeed(ctx, posts))
		mr.FastForward(31 * time.Second)
		_, err := cache.GetPublicFeed(ctx)
		assert.ErrorIs(t, err, myErrors.ErrCacheMiss)
	})

	t.Run("Redis 故障返回普通错误", func(t *testing.T) {
		mr.SetError("boom")
		defer mr.SetError("")
		_, err := cache.GetPublicFeed(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, myErrors.ErrCacheMiss)
	})
}

func TestFeedCache_DefaultTTL(t *testing.T) {
	mr, rdb := newTestClient(t)
	cache := NewFeedCache(rdb, core.WrapZap(zap.NewNop()), 0)
	require.NoError(t, cache.SetPublicFeed(context.Background(), []vo.PostVO{{ID: 1}}))
	assert.Equal(t, constant.DefaultPublicFeedTTL, mr.TTL(constant.PublicFeedCacheKey))
}

func TestActionNonceStore_Consume(t *testing.T) {
	mr, rdb := newTestClient(t)
	store := NewActionNonceStore(rdb, core.WrapZap(zap.NewNop()))
	ctx := context.Background()

	first, err := store.Consume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Consume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.Consume(ctx, "jti-2", 0)
	require.NoError(t, err)
	assert.True(t, other)
	assert.Equal(t, time.Minute, mr.TTL(constant.ActionTokenNoncePrefix+"jti-2"))

	mr.FastForward(2 * time.Hour)
	reused, err := store.Consume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, reused, "占用记录过期后不再生效")
}

func TestActionNonceStore_Release(t *testing.T) {
	mr, rdb := newTestClient(t)
	store := NewActionNonceStore(rdb, core.WrapZap(zap.NewNop()))
	ctx := context.Background()

	first, err := store.Consume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, store.Release(ctx, "jti-1"))
	assert.False(t, mr.Exists(constant.ActionTokenNoncePrefix+"jti-1"))

	again, err := store.Consume(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, again, "归还后可以再次占用")

	// 未被占用的 jti 也可以安全地归还
	assert.NoError(t, store.Release(ctx, "never-used"))

	mr.SetError("connection lost")
	assert.Error(t, store.Release(ctx, "jti-1"))
}
