package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

func TestPostVote_Transitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Benchmarks")

	res, err := env.vote.UpvotePost(ctx, bob, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.VoteCount)
	assert.Equal(t, enums.VoteUp, res.UserVote)

	_, err = env.vote.UpvotePost(ctx, bob, post.Slug)
	assert.ErrorIs(t, err, myErrors.ErrAlreadyVoted)

	// 切换方向，计数变化 -2，原记录原地修改
	res, err = env.vote.DownvotePost(ctx, bob, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), res.VoteCount)
	assert.Equal(t, int64(1), countRows(t, env.db, &entities.PostVote{}, "post_id = ?", post.ID))

	res, err = env.vote.UpvotePost(ctx, alice, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.VoteCount)

	res, err = env.vote.RemovePostVote(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.VoteCount)
	assert.Empty(t, res.UserVote)

	_, err = env.vote.RemovePostVote(ctx, bob, post.ID)
	assert.ErrorIs(t, err, myErrors.ErrNoExistingVote)

	detail, err := env.post.GetPostDetail(ctx, alice, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, enums.VoteUp, detail.UserVote)
	assert.Equal(t, int64(1), detail.Post.VoteCount)

	counters, err := env.vote.RecomputePostCounters(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.Post.VoteCount, counters.VoteCount)
}

func TestPostVote_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")

	_, err := env.vote.UpvotePost(ctx, alice, "missing-post")
	assert.ErrorIs(t, err, myErrors.ErrNotFound)

	_, err = env.vote.RemovePostVote(ctx, alice, 999)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)

	_, err = env.vote.UpvotePost(ctx, "", "missing-post")
	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}

func TestMessageVote_ReaggregatesCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	carol := env.user(t, "u-carol", "carol")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Escape analysis")
	started, err := env.thread.RespondToPost(ctx, alice, post.Slug, "thoughts?")
	require.NoError(t, err)
	msgID := started.Message.ID

	res, err := env.vote.UpvoteMessage(ctx, bob, msgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.VoteCount)

	res, err = env.vote.UpvoteMessage(ctx, carol, msgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.VoteCount)

	res, err = env.vote.DownvoteMessage(ctx, bob, msgID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.VoteCount)

	_, err = env.vote.DownvoteMessage(ctx, bob, msgID)
	assert.ErrorIs(t, err, myErrors.ErrAlreadyVoted)

	res, err = env.vote.RemoveMessageVote(ctx, carol, msgID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), res.VoteCount)

	_, err = env.vote.RemoveMessageVote(ctx, carol, msgID)
	assert.ErrorIs(t, err, myErrors.ErrNoExistingVote)

	_, err = env.vote.UpvoteMessage(ctx, bob, 424242)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)

	// 人为制造漂移后重算
	require.NoError(t, env.db.Model(&entities.Message{}).Where("id = ?", msgID).Update("vote_count", 99).Error)
	count, err := env.vote.RecomputeMessageVoteCount(ctx, msgID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), count)
}

func TestRecomputePostCounters_FixesDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Profiling")

	_, err := env.vote.DownvotePost(ctx, bob, post.Slug)
	require.NoError(t, err)
	require.NoError(t, env.post.HidePost(ctx, bob, post.Slug))

	require.NoError(t, env.db.Model(&entities.Post{}).Where("id = ?", post.ID).
		Updates(map[string]interface{}{"vote_count": 10, "hidden_count": 7}).Error)

	counters, err := env.vote.RecomputePostCounters(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), counters.VoteCount)
	assert.Equal(t, int64(1), counters.HiddenCount)

	stored, err := env.postRepo.GetByID(ctx, nil, post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), stored.VoteCount)
	assert.Equal(t, int64(1), stored.HiddenCount)
}

// staleVoteRepo 读不到已有投票，模拟两个请求同时通过"尚未投票"的检查
type staleVoteRepo struct {
	mysql.VoteRepository
}

func (staleVoteRepo) GetPostVote(context.Context, *gorm.DB, string, uint64) (*entities.PostVote, error) {
	return nil, myErrors.ErrRepoNotFound
}

func (staleVoteRepo) GetMessageVote(context.Context, *gorm.DB, string, uint64) (*entities.MessageVote, error) {
	return nil, myErrors.ErrRepoNotFound
}

func TestVote_DuplicateInsertRaceIsAlreadyVoted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Race")
	msg, err := env.thread.RespondToPost(ctx, alice, post.Slug, "race me")
	require.NoError(t, err)

	_, err = env.vote.UpvotePost(ctx, bob, post.Slug)
	require.NoError(t, err)
	_, err = env.vote.UpvoteMessage(ctx, bob, msg.Message.ID)
	require.NoError(t, err)

	logger := core.WrapZap(zap.NewNop())
	stale := NewVoteService(env.db, env.postRepo,
		mysql.NewThreadRepository(env.db, logger),
		staleVoteRepo{VoteRepository: mysql.NewVoteRepository(env.db, logger)},
		mysql.NewRelationRepository(env.db, logger),
		logger)

	_, err = stale.DownvotePost(ctx, bob, post.Slug)
	assert.ErrorIs(t, err, myErrors.ErrAlreadyVoted)
	_, err = stale.DownvoteMessage(ctx, bob, msg.Message.ID)
	assert.ErrorIs(t, err, myErrors.ErrAlreadyVoted)

	// 冲突的事务整体回滚，计数保持不变
	detail, err := env.post.GetPostDetail(ctx, bob, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Post.VoteCount)
	assert.Equal(t, enums.VoteUp, detail.UserVote)
	var stored entities.Message
	require.NoError(t, env.db.First(&stored, msg.Message.ID).Error)
	assert.Equal(t, int64(1), stored.VoteCount)
}

func TestVote_ConcurrentVotersKeepCountersConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Popular")
	msg, err := env.thread.RespondToPost(ctx, alice, post.Slug, "popular reply")
	require.NoError(t, err)

	const voters = 20
	users := make([]string, voters)
	for i := range users {
		users[i] = env.user(t, fmt.Sprintf("u-%02d", i), fmt.Sprintf("voter%02d", i))
	}

	// 同方向重复投票、撤销不存在的投票是并发下允许出现的业务错误
	expected := func(err error) bool {
		return err == nil || errors.Is(err, myErrors.ErrAlreadyVoted) || errors.Is(err, myErrors.ErrNoExistingVote)
	}

	var wg sync.WaitGroup
	for i, user := range users {
		// 每个用户两个并发请求，互相竞争同一条投票记录
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(i, j int, user string) {
				defer wg.Done()
				calls := []func() error{
					func() error { _, err := env.vote.UpvotePost(ctx, user, post.Slug); return err },
					func() error { _, err := env.vote.UpvoteMessage(ctx, user, msg.Message.ID); return err },
				}
				if (i+j)%2 == 0 {
					calls = append(calls,
						func() error { _, err := env.vote.DownvotePost(ctx, user, post.Slug); return err },
						func() error { _, err := env.vote.DownvoteMessage(ctx, user, msg.Message.ID); return err },
					)
				}
				if i%5 == 0 {
					calls = append(calls,
						func() error { _, err := env.vote.RemovePostVote(ctx, user, post.ID); return err },
						func() error { _, err := env.vote.RemoveMessageVote(ctx, user, msg.Message.ID); return err },
					)
				}
				for _, call := range calls {
					err := call()
					assert.True(t, expected(err), "unexpected error: %v", err)
				}
			}(i, j, user)
		}
	}
	wg.Wait()

	var postSum, msgSum int64
	require.NoError(t, env.db.Model(&entities.PostVote{}).Where("post_id = ?", post.ID).
		Select("COALESCE(SUM(value), 0)").Scan(&postSum).Error)
	require.NoError(t, env.db.Model(&entities.MessageVote{}).Where("message_id = ?", msg.Message.ID).
		Select("COALESCE(SUM(value), 0)").Scan(&msgSum).Error)

	var storedPost entities.Post
	require.NoError(t, env.db.First(&storedPost, post.ID).Error)
	assert.Equal(t, postSum, storedPost.VoteCount, "帖子计数等于投票明细之和")

	var storedMsg entities.Message
	require.NoError(t, env.db.First(&storedMsg, msg.Message.ID).Error)
	assert.Equal(t, msgSum, storedMsg.VoteCount, "消息计数等于投票明细之和")

	assert.LessOrEqual(t, countRows(t, env.db, &entities.PostVote{}, "post_id = ?", post.ID), int64(voters), "每人每帖至多一票")
}
