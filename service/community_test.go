package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/myErrors"
)

func TestCreateCommunity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")

	c, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "  Crème Brûlée Lovers ", Description: "desserts"})
	require.NoError(t, err)
	assert.Equal(t, "Crème Brûlée Lovers", c.Title)
	assert.Equal(t, "creme-brulee-lovers", c.Slug)
	assert.Equal(t, enums.CommunityPending, c.Status)
	assert.Equal(t, mod, c.ModeratorID)

	again, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Creme brulee lovers!"})
	require.NoError(t, err)
	assert.Equal(t, "creme-brulee-lovers-1", again.Slug)

	_, err = env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "   "})
	assert.ErrorIs(t, err, myErrors.ErrEmptyContent)

	_, err = env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: strings.Repeat("x", 300)})
	assert.ErrorIs(t, err, myErrors.ErrInvalidInput)

	_, err = env.community.CreateCommunity(ctx, "", &dto.CreateCommunityRequest{Title: "anon"})
	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}

func TestPendingCommunityVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")

	pending, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Pending Place"})
	require.NoError(t, err)
	approved := env.approvedCommunity(t, mod, "Open Place")

	_, err = env.community.GetCommunityDetail(ctx, alice, pending.Slug)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
	_, err = env.community.GetCommunityDetail(ctx, "", pending.Slug)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)

	detail, err := env.community.GetCommunityDetail(ctx, mod, pending.Slug)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, detail.Community.ID)

	slugsOf := func(viewer string) []string {
		list, err := env.community.ListCommunities(ctx, viewer)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.Slug)
		}
		return out
	}
	assert.Equal(t, []string{approved.Slug}, slugsOf(alice))
	assert.Equal(t, []string{approved.Slug}, slugsOf(""))
	assert.ElementsMatch(t, []string{approved.Slug, pending.Slug}, slugsOf(mod))
}

func TestCommunityDetail_PostsAndFollowFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	c := env.approvedCommunity(t, mod, "Gophers")

	env.newPost(t, alice, c.ID, "first")
	env.newPost(t, bob, c.ID, "second")

	require.NoError(t, env.identity.Follow(ctx, alice, c.Slug))
	require.NoError(t, env.identity.Block(ctx, alice, "bob"))

	detail, err := env.community.GetCommunityDetail(ctx, alice, c.Slug)
	require.NoError(t, err)
	assert.True(t, detail.IsFollowing)
	require.Len(t, detail.Posts, 1)
	assert.Equal(t, "first", detail.Posts[0].Title)
	assert.Equal(t, "alice", detail.Posts[0].AuthorUsername)

	anon, err := env.community.GetCommunityDetail(ctx, "", c.Slug)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
	require.Len(t, anon.Posts, 2)
	assert.Equal(t, "second", anon.Posts[0].Title, "最新的帖子在前")
}

func TestRequestApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")

	c, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Rustaceans"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.community.RequestApproval(ctx, alice, c.Slug), myErrors.ErrForbidden)
	assert.ErrorIs(t, env.community.RequestApproval(ctx, mod, "missing"), myErrors.ErrNotFound)

	_, err = env.post.CreatePost(ctx, mod, &dto.CreatePostRequest{CommunityID: c.ID, Title: "early", Content: "x"}, nil)
	assert.ErrorIs(t, err, myErrors.ErrCommunityNotApproved)

	require.NoError(t, env.community.RequestApproval(ctx, mod, c.Slug))

	var approval events.ApprovalRequestNotification
	require.Eventually(t, func() bool {
		for _, n := range env.notifier.snapshot() {
			if a, ok := n.(events.ApprovalRequestNotification); ok {
				approval = a
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, c.Slug, approval.CommunitySlug)
	assert.Equal(t, "mod", approval.ModeratorUsername)
	assert.Equal(t, []string{"admin@example.com"}, approval.Recipients)
	assert.True(t, strings.HasPrefix(approval.ApproveURL, "https://community.example.com/api/v1/community/moderation/actions?token="))
	assert.Contains(t, approval.Render().Body, approval.ApproveURL)

	result, err := env.moderation.ExecuteAction(ctx, tokenFromURL(t, approval.ApproveURL))
	require.NoError(t, err)
	assert.Equal(t, string(enums.ActionApproveCommunity), result.Action)
	assert.Equal(t, "applied", result.Result)

	_, err = env.post.CreatePost(ctx, mod, &dto.CreatePostRequest{CommunityID: c.ID, Title: "now allowed", Content: "x"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.community.RequestApproval(ctx, mod, c.Slug), myErrors.ErrInvalidInput, "已审核的社区不能再次申请")
}

func TestApproveCommunity_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "Once")

	changed, err := env.community.ApproveCommunity(ctx, c.Slug)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = env.community.ApproveCommunity(ctx, "missing")
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}
