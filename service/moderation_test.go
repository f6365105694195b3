package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
	"github.com/Xushengqwer/community_service/repo/redis"
)

// waitReport 等待后台投递的举报通知
func waitReport(t *testing.T, env *testEnv, slug string) events.ReportNotification {
	t.Helper()
	var got events.ReportNotification
	require.Eventually(t, func() bool {
		for _, n := range env.notifier.snapshot() {
			if r, ok := n.(events.ReportNotification); ok && r.PostSlug == slug {
				got = r
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	return got
}

func TestReportPost_BanAndUnbanLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	c := env.approvedCommunity(t, mod, "General")
	post := env.newPost(t, alice, c.ID, "questionable")

	require.NoError(t, env.moderation.ReportPost(ctx, bob, post.Slug))
	assert.ErrorIs(t, env.moderation.ReportPost(ctx, bob, post.Slug), myErrors.ErrAlreadyReported)

	report := waitReport(t, env, post.Slug)
	assert.Equal(t, "bob", report.ReporterUsername)
	assert.Equal(t, []string{"mods@example.com"}, report.Recipients)
	assert.NotEqual(t, report.BanURL, report.UnbanURL)

	t.Run("封禁后帖子对所有人不可见", func(t *testing.T) {
		result, err := env.moderation.ExecuteAction(ctx, tokenFromURL(t, report.BanURL))
		require.NoError(t, err)
		assert.Equal(t, "applied", result.Result)
		assert.Equal(t, post.Slug, result.TargetSlug)

		_, err = env.post.GetPostDetail(ctx, alice, post.Slug)
		assert.ErrorIs(t, err, myErrors.ErrNotFound)
		detail, err := env.community.GetCommunityDetail(ctx, "", c.Slug)
		require.NoError(t, err)
		assert.Empty(t, detail.Posts)
	})

	t.Run("令牌只能使用一次", func(t *testing.T) {
		_, err := env.moderation.ExecuteAction(ctx, tokenFromURL(t, report.BanURL))
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})

	t.Run("解封恢复可见", func(t *testing.T) {
		result, err := env.moderation.ExecuteAction(ctx, tokenFromURL(t, report.UnbanURL))
		require.NoError(t, err)
		assert.Equal(t, "applied", result.Result)

		detail, err := env.post.GetPostDetail(ctx, alice, post.Slug)
		require.NoError(t, err)
		assert.Equal(t, enums.PostActive, detail.Post.Status)
	})

	t.Run("重复执行不改变状态", func(t *testing.T) {
		token, err := env.signer.Issue(enums.ActionUnbanPost, post.Slug)
		require.NoError(t, err)
		result, err := env.moderation.ExecuteAction(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "unchanged", result.Result)
	})
}

func TestReportPost_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.user(t, "u-bob", "bob")

	assert.ErrorIs(t, env.moderation.ReportPost(ctx, "", "whatever"), myErrors.ErrUnauthorized)
	assert.ErrorIs(t, env.moderation.ReportPost(ctx, bob, "missing"), myErrors.ErrNotFound)
}

func TestExecuteAction_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	post := env.newPost(t, mod, c.ID, "target")

	t.Run("格式错误", func(t *testing.T) {
		_, err := env.moderation.ExecuteAction(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})

	t.Run("篡改签名", func(t *testing.T) {
		ban, err := env.signer.Issue(enums.ActionBanPost, post.Slug)
		require.NoError(t, err)
		unban, err := env.signer.Issue(enums.ActionUnbanPost, post.Slug)
		require.NoError(t, err)
		// 封禁令牌的载荷配上解封令牌的签名
		tampered := ban[:strings.LastIndex(ban, ".")] + unban[strings.LastIndex(unban, "."):]
		_, err = env.moderation.ExecuteAction(ctx, tampered)
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})

	t.Run("其他密钥签发", func(t *testing.T) {
		other := &ActionTokenSigner{secret: []byte("other-secret"), issuer: env.signer.issuer, ttl: time.Hour, now: time.Now}
		token, err := other.Issue(enums.ActionBanPost, post.Slug)
		require.NoError(t, err)
		_, err = env.moderation.ExecuteAction(ctx, token)
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})

	t.Run("已过期", func(t *testing.T) {
		token, err := env.signer.Issue(enums.ActionBanPost, post.Slug)
		require.NoError(t, err)
		env.signer.now = func() time.Time { return time.Now().Add(defaultActionTokenTTL + time.Hour) }
		defer func() { env.signer.now = time.Now }()
		_, err = env.moderation.ExecuteAction(ctx, token)
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})

	detail, err := env.post.GetPostDetail(ctx, mod, post.Slug)
	require.NoError(t, err, "被拒绝的令牌不能产生任何效果")
	assert.Equal(t, enums.PostActive, detail.Post.Status)
}

func TestApplyDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	post := env.newPost(t, mod, c.ID, "decided")

	assert.ErrorIs(t, env.moderation.ApplyDecision(ctx, nil), myErrors.ErrInvalidInput)
	assert.ErrorIs(t, env.moderation.ApplyDecision(ctx, &events.ModerationDecisionEvent{Action: "delete_everything", TargetSlug: post.Slug}), myErrors.ErrInvalidInput)
	assert.ErrorIs(t, env.moderation.ApplyDecision(ctx, &events.ModerationDecisionEvent{Action: enums.ActionBanPost}), myErrors.ErrInvalidInput)
	assert.ErrorIs(t, env.moderation.ApplyDecision(ctx, &events.ModerationDecisionEvent{Action: enums.ActionBanPost, TargetSlug: "missing"}), myErrors.ErrNotFound)

	require.NoError(t, env.moderation.ApplyDecision(ctx, &events.ModerationDecisionEvent{Action: enums.ActionBanPost, TargetSlug: post.Slug}))
	_, err := env.post.GetPostDetail(ctx, "", post.Slug)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)

	pending, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Later"})
	require.NoError(t, err)
	require.NoError(t, env.moderation.ApplyDecision(ctx, &events.ModerationDecisionEvent{Action: enums.ActionApproveCommunity, TargetSlug: pending.Slug}))
	detail, err := env.community.GetCommunityDetail(ctx, "", pending.Slug)
	require.NoError(t, err)
	assert.Equal(t, enums.CommunityApproved, detail.Community.Status)
}

func TestSetPostStatus_InvalidatesPublicFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	c := env.approvedCommunity(t, mod, "General")
	post := env.newPost(t, mod, c.ID, "cached")

	feed, err := env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.True(t, env.mr.Exists("feed:public"))

	changed, err := env.moderation.SetPostStatus(ctx, post.Slug, enums.PostBanned)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, env.mr.Exists("feed:public"))

	feed, err = env.feed.PublicFeed(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

// flakyCommunityService 前 failures 次审核调用返回服务端错误
type flakyCommunityService struct {
	CommunityService
	failures int
}

func (f *flakyCommunityService) ApproveCommunity(ctx context.Context, slug string) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("database is locked")
	}
	return f.CommunityService.ApproveCommunity(ctx, slug)
}

func TestExecuteAction_ServerErrorKeepsTokenUsable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")

	pending, err := env.community.CreateCommunity(ctx, mod, &dto.CreateCommunityRequest{Title: "Retry Me"})
	require.NoError(t, err)

	logger := core.WrapZap(zap.NewNop())
	rdb := goredis.NewClient(&goredis.Options{Addr: env.mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	flaky := &flakyCommunityService{CommunityService: env.community, failures: 1}
	svc := NewModerationService(env.postRepo,
		mysql.NewRelationRepository(env.db, logger),
		mysql.NewUserRepository(env.db, logger),
		flaky, env.signer,
		redis.NewActionNonceStore(rdb, logger),
		redis.NewFeedCache(rdb, logger, 0),
		nil, NotifyOptions{}, logger)

	token, err := env.signer.Issue(enums.ActionApproveCommunity, pending.Slug)
	require.NoError(t, err)

	_, err = svc.ExecuteAction(ctx, token)
	require.Error(t, err)
	assert.Equal(t, myErrors.KindInternal, myErrors.KindOf(err))

	result, err := svc.ExecuteAction(ctx, token)
	require.NoError(t, err, "服务端故障后同一链接可以重试")
	assert.Equal(t, "applied", result.Result)

	_, err = svc.ExecuteAction(ctx, token)
	assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)

	t.Run("目标不存在时令牌仍被消耗", func(t *testing.T) {
		missing, err := env.signer.Issue(enums.ActionBanPost, "no-such-post")
		require.NoError(t, err)
		_, err = svc.ExecuteAction(ctx, missing)
		assert.ErrorIs(t, err, myErrors.ErrNotFound)
		_, err = svc.ExecuteAction(ctx, missing)
		assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
	})
}
