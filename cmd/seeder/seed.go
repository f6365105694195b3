package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/service"
)

type SeedOptions struct {
	Users        int
	Communities  int
	Posts        int
	MaxResponses int
	RandSeed     int64
}

type Services struct {
	Identity  service.IdentityService
	Community service.CommunityService
	Post      service.PostService
	Thread    service.ThreadService
	Vote      service.VoteService
}

type SeedSummary struct {
	Users       int
	Communities int
	Posts       int
	Messages    int
	Votes       int
}

// Seed 通过服务层生成用户、已审核社区、关注关系、帖子、回应和投票。
// 帖子并发创建，单条失败只记录日志。
func Seed(ctx context.Context, svcs Services, logger *core.ZapLogger, opts SeedOptions) (*SeedSummary, error) {
	faker := gofakeit.New(opts.RandSeed)
	summary := &SeedSummary{}

	userIDs := make([]string, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		userID := uuid.NewString()
		req := &dto.UpsertProfileRequest{
			Username: fmt.Sprintf("%s%d", faker.Username(), i),
			Email:    faker.Email(),
		}
		if _, err := svcs.Identity.UpsertProfile(ctx, userID, req); err != nil {
			return summary, fmt.Errorf("创建用户 %s 失败: %w", req.Username, err)
		}
		userIDs = append(userIDs, userID)
	}
	summary.Users = len(userIDs)

	communities := make([]*vo.CommunityVO, 0, opts.Communities)
	for i := 0; i < opts.Communities; i++ {
		moderator := userIDs[faker.Number(0, len(userIDs)-1)]
		community, err := svcs.Community.CreateCommunity(ctx, moderator, &dto.CreateCommunityRequest{
			Title:       faker.HipsterWord() + " " + faker.Noun(),
			Description: faker.Sentence(12),
		})
		if err != nil {
			return summary, fmt.Errorf("创建社区失败: %w", err)
		}
		if _, err := svcs.Community.ApproveCommunity(ctx, community.Slug); err != nil {
			return summary, fmt.Errorf("审核社区 %s 失败: %w", community.Slug, err)
		}
		communities = append(communities, community)
	}
	summary.Communities = len(communities)

	// 每个用户随机关注一半社区
	for _, userID := range userIDs {
		for _, community := range communities {
			if faker.Bool() {
				if err := svcs.Identity.Follow(ctx, userID, community.Slug); err != nil {
					logger.Warn("关注社区失败", zap.String("user", userID), zap.Error(err))
				}
			}
		}
	}

	var wg sync.WaitGroup
	var posts, messages, votes atomic.Int64
	semaphore := make(chan struct{}, 10)

	for i := 0; i < opts.Posts; i++ {
		// gofakeit 的实例不是并发安全的，随机数在主 goroutine 里生成
		author := userIDs[faker.Number(0, len(userIDs)-1)]
		community := communities[faker.Number(0, len(communities)-1)]
		req := &dto.CreatePostRequest{
			CommunityID: community.ID,
			Title:       faker.Sentence(faker.Number(4, 10)),
			Content:     faker.Paragraph(2, 3, 12, "\n\n"),
		}
		responders := make([]string, faker.Number(0, opts.MaxResponses))
		for j := range responders {
			responders[j] = userIDs[faker.Number(0, len(userIDs)-1)]
		}
		voters := make([]string, faker.Number(0, len(userIDs)))
		for j := range voters {
			voters[j] = userIDs[j]
		}
		replies := make([]string, len(responders))
		for j := range replies {
			replies[j] = faker.Sentence(faker.Number(5, 20))
		}
		upvote := faker.Bool()

		wg.Add(1)
		semaphore <- struct{}{}
		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			post, err := svcs.Post.CreatePost(ctx, author, req, nil)
			if err != nil {
				logger.Error(fmt.Sprintf("创建帖子 %d/%d 失败", index+1, opts.Posts), zap.Error(err), zap.String("title", req.Title))
				return
			}
			posts.Add(1)

			for j, responder := range responders {
				if _, err := svcs.Thread.RespondToPost(ctx, responder, post.Slug, replies[j]); err != nil {
					logger.Warn("生成回应失败", zap.String("slug", post.Slug), zap.Error(err))
					continue
				}
				messages.Add(1)
			}
			lastCount := post.VoteCount
			for _, voter := range voters {
				var (
					res     *vo.VoteResultVO
					voteErr error
				)
				if upvote {
					res, voteErr = svcs.Vote.UpvotePost(ctx, voter, post.Slug)
				} else {
					res, voteErr = svcs.Vote.DownvotePost(ctx, voter, post.Slug)
				}
				if voteErr != nil {
					logger.Warn("生成投票失败", zap.String("slug", post.Slug), zap.Error(voteErr))
					continue
				}
				lastCount = res.VoteCount
				votes.Add(1)
			}
			// 按明细重算一次，核对增量维护的计数
			counters, err := svcs.Vote.RecomputePostCounters(ctx, post.ID)
			if err != nil {
				logger.Warn("重算帖子计数失败", zap.String("slug", post.Slug), zap.Error(err))
			} else if counters.VoteCount != lastCount {
				logger.Warn("填充后帖子计数与明细不一致",
					zap.String("slug", post.Slug),
					zap.Int64("incremental", lastCount),
					zap.Int64("recomputed", counters.VoteCount),
				)
			}
		}(i)
	}
	wg.Wait()

	summary.Posts = int(posts.Load())
	summary.Messages = int(messages.Load())
	summary.Votes = int(votes.Load())
	return summary, nil
}
