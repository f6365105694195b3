package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

func TestUpsertProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")

	t.Run("再次写入会更新资料", func(t *testing.T) {
		p, err := env.identity.UpsertProfile(ctx, alice, &dto.UpsertProfileRequest{Username: "alice2", Email: "a2@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "alice2", p.Username)
		assert.Equal(t, "a2@example.com", p.Email)
		assert.True(t, p.NotifyOnReply)
	})

	t.Run("用户名被他人占用", func(t *testing.T) {
		env.user(t, "u-bob", "bob")
		_, err := env.identity.UpsertProfile(ctx, "u-carol", &dto.UpsertProfileRequest{Username: "bob"})
		assert.ErrorIs(t, err, myErrors.ErrInvalidInput)
	})

	t.Run("空用户名", func(t *testing.T) {
		_, err := env.identity.UpsertProfile(ctx, "u-dave", &dto.UpsertProfileRequest{Username: "   "})
		assert.ErrorIs(t, err, myErrors.ErrInvalidInput)
	})

	t.Run("未登录", func(t *testing.T) {
		_, err := env.identity.UpsertProfile(ctx, "", &dto.UpsertProfileRequest{Username: "ghost"})
		assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
	})
}

func TestGetProfileByUsername_HidesEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "u-alice", "alice")

	own, err := env.identity.GetProfile(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", own.Email)

	public, err := env.identity.GetProfileByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", public.ID)
	assert.Empty(t, public.Email)

	_, err = env.identity.GetProfileByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}

func TestUpdatePreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")

	p, err := env.identity.UpdatePreferences(ctx, alice, false)
	require.NoError(t, err)
	assert.False(t, p.NotifyOnReply)

	p, err = env.identity.UpdatePreferences(ctx, alice, true)
	require.NoError(t, err)
	assert.True(t, p.NotifyOnReply)

	_, err = env.identity.UpdatePreferences(ctx, "u-missing", true)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}

func TestFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")
	c := env.approvedCommunity(t, mod, "Go Programming")

	following, err := env.identity.FollowStatus(ctx, alice, c.Slug)
	require.NoError(t, err)
	assert.False(t, following)

	require.NoError(t, env.identity.Follow(ctx, alice, c.Slug))
	assert.ErrorIs(t, env.identity.Follow(ctx, alice, c.Slug), myErrors.ErrAlreadyFollowing)

	following, err = env.identity.FollowStatus(ctx, alice, c.Slug)
	require.NoError(t, err)
	assert.True(t, following)

	// 匿名访问始终返回未关注
	following, err = env.identity.FollowStatus(ctx, "", c.Slug)
	require.NoError(t, err)
	assert.False(t, following)

	list, err := env.identity.ListFollowedCommunities(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.Slug, list[0].Slug)

	require.NoError(t, env.identity.Unfollow(ctx, alice, c.Slug))
	assert.ErrorIs(t, env.identity.Unfollow(ctx, alice, c.Slug), myErrors.ErrNotFollowing)

	assert.ErrorIs(t, env.identity.Follow(ctx, alice, "no-such-community"), myErrors.ErrNotFound)
}

func TestBlockAndUnblock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	env.user(t, "u-bob", "bob")
	env.user(t, "u-carol", "carol")

	assert.ErrorIs(t, env.identity.Block(ctx, alice, "alice"), myErrors.ErrInvalidInput)
	assert.ErrorIs(t, env.identity.Block(ctx, alice, "nobody"), myErrors.ErrNotFound)

	require.NoError(t, env.identity.Block(ctx, alice, "bob"))
	require.NoError(t, env.identity.Block(ctx, alice, "carol"))
	assert.ErrorIs(t, env.identity.Block(ctx, alice, "bob"), myErrors.ErrAlreadyBlocked)

	names, err := env.identity.ListBlockedUsernames(ctx, alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, names)

	require.NoError(t, env.identity.Unblock(ctx, alice, "bob"))
	assert.ErrorIs(t, env.identity.Unblock(ctx, alice, "bob"), myErrors.ErrNotBlocked)

	names, err = env.identity.ListBlockedUsernames(ctx, "u-bob")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestUpdateProfilePhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")

	_, err := env.identity.UpdateProfilePhoto(ctx, alice, newImage("image/png", []byte("png")))
	assert.ErrorIs(t, err, myErrors.ErrInvalidInput, "未配置对象存储时拒绝上传")

	logger := core.WrapZap(zap.NewNop())
	store := newFakeStore()
	svc := NewIdentityService(
		mysql.NewUserRepository(env.db, logger),
		mysql.NewCommunityRepository(env.db, logger),
		mysql.NewRelationRepository(env.db, logger),
		store, 0, logger,
	)

	first, err := svc.UpdateProfilePhoto(ctx, alice, newImage("image/jpeg", []byte("first")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ProfilePhotoURL, "https://cdn.example.com/community/profiles/"))

	second, err := svc.UpdateProfilePhoto(ctx, alice, newImage("image/png", []byte("second")))
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfilePhotoURL, second.ProfilePhotoURL)

	oldKey := strings.TrimPrefix(first.ProfilePhotoURL, "https://cdn.example.com/")
	assert.Eventually(t, func() bool {
		return len(store.deletedKeys()) == 1 && store.deletedKeys()[0] == oldKey
	}, time.Second, 10*time.Millisecond)

	_, err = svc.UpdateProfilePhoto(ctx, "u-missing", newImage("image/png", []byte("x")))
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}
