package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/myErrors"
)

func TestHomeFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")

	followed := env.approvedCommunity(t, mod, "Followed")
	other := env.approvedCommunity(t, mod, "Other")
	pending, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Pending"})
	require.NoError(t, err)

	env.newPost(t, mod, followed.ID, "from mod")
	env.newPost(t, bob, followed.ID, "from bob")
	hidden := env.newPost(t, mod, followed.ID, "hidden one")
	env.newPost(t, mod, other.ID, "not followed")

	require.NoError(t, env.identity.Follow(ctx, alice, followed.Slug))
	require.NoError(t, env.identity.Follow(ctx, alice, pending.Slug))
	require.NoError(t, env.identity.Block(ctx, alice, "bob"))
	require.NoError(t, env.post.HidePost(ctx, alice, hidden.Slug))

	feed, err := env.feed.HomeFeed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from mod", feed[0].Title)
	assert.Equal(t, "mod", feed[0].AuthorUsername)

	_, err = env.feed.HomeFeed(ctx, "")
	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}

func TestPublicFeed_CachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	env.newPost(t, mod, c.ID, "one")

	feed, err := env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, env.mr.Exists(constant.PublicFeedCacheKey))
	assert.Greater(t, int64(env.mr.TTL(constant.PublicFeedCacheKey)), int64(0))

	// 直接写库绕过服务层，缓存仍返回旧数据
	require.NoError(t, env.db.Exec("UPDATE posts SET title = ? WHERE title = ?", "renamed", "one").Error)
	feed, err = env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", feed[0].Title)

	// 发帖会失效缓存
	env.newPost(t, mod, c.ID, "two")
	assert.False(t, env.mr.Exists(constant.PublicFeedCacheKey))

	feed, err = env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "two", feed[0].Title)
	assert.Equal(t, "renamed", feed[1].Title)
}

func TestPublicFeed_RedisDownFallsBackToDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	env.newPost(t, mod, c.ID, "survives")

	env.mr.SetError("LOADING")
	feed, err := env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	env.mr.SetError("")
}

func TestWarmPublicFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	for i := 0; i < constant.PublicFeedLimit+5; i++ {
		env.newPost(t, mod, c.ID, "post")
	}

	n, err := env.feed.WarmPublicFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, constant.PublicFeedLimit, n)
	assert.True(t, env.mr.Exists(constant.PublicFeedCacheKey))
}
