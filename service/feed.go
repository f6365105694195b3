package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
	"github.com/Xushengqwer/community_service/repo/redis"
)

// FeedService 提供首页和公共信息流。
type FeedService interface {
	// HomeFeed 用户关注的已审核社区中的 active 帖子，排除拉黑作者和个人隐藏，最新的在前
	HomeFeed(ctx context.Context, viewerID string) ([]vo.PostVO, error)
	// PublicFeed 全部已审核社区中最新的 active 帖子，无需登录，优先读缓存
	PublicFeed(ctx context.Context) ([]vo.PostVO, error)
	// WarmPublicFeed 从数据库重建公共信息流缓存，由定时任务调用
	WarmPublicFeed(ctx context.Context) (int, error)
}

type feedService struct {
	postRepo  mysql.PostRepository
	userRepo  mysql.UserRepository
	feedCache redis.FeedCache
	logger    *core.ZapLogger
}

func NewFeedService(postRepo mysql.PostRepository, userRepo mysql.UserRepository, feedCache redis.FeedCache, logger *core.ZapLogger) FeedService {
	return &feedService{postRepo: postRepo, userRepo: userRepo, feedCache: feedCache, logger: logger}
}

func (s *feedService) HomeFeed(ctx context.Context, viewerID string) ([]vo.PostVO, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}
	return s.load(ctx, mysql.PostListQuery{
		ViewerID:     viewerID,
		FollowedBy:   viewerID,
		ApprovedOnly: true,
		Limit:        constant.HomeFeedLimit,
	})
}

func (s *feedService) PublicFeed(ctx context.Context) ([]vo.PostVO, error) {
	if s.feedCache != nil {
		cached, err := s.feedCache.GetPublicFeed(ctx)
		switch {
		case err == nil:
			metrics.FeedCacheResults.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, myErrors.ErrCacheMiss):
			metrics.FeedCacheResults.WithLabelValues("miss").Inc()
		default:
			// Redis 故障时降级直接读库
			metrics.FeedCacheResults.WithLabelValues("error").Inc()
			s.logger.Warn("读取公共信息流缓存失败，降级查询数据库", zap.Error(err))
		}
	}

	posts, err := s.buildPublicFeed(ctx)
	if err != nil {
		return nil, err
	}
	if s.feedCache != nil {
		if err := s.feedCache.SetPublicFeed(ctx, posts); err != nil {
			recordSideEffectFailure("feed_cache_set")
			s.logger.Warn("写入公共信息流缓存失败", zap.Error(err))
		}
	}
	return posts, nil
}

func (s *feedService) WarmPublicFeed(ctx context.Context) (int, error) {
	posts, err := s.buildPublicFeed(ctx)
	if err != nil {
		return 0, err
	}
	if s.feedCache == nil {
		return len(posts), nil
	}
	if err := s.feedCache.SetPublicFeed(ctx, posts); err != nil {
		return 0, fmt.Errorf("写入公共信息流缓存失败: %w", err)
	}
	return len(posts), nil
}

func (s *feedService) buildPublicFeed(ctx context.Context) ([]vo.PostVO, error) {
	return s.load(ctx, mysql.PostListQuery{ApprovedOnly: true, Limit: constant.PublicFeedLimit})
}

func (s *feedService) load(ctx context.Context, q mysql.PostListQuery) ([]vo.PostVO, error) {
	posts, err := s.postRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("查询信息流失败: %w", err)
	}
	usernames, err := s.userRepo.GetUsernames(ctx, postAuthorIDs(posts))
	if err != nil {
		s.logger.Warn("查询帖子作者用户名失败", zap.Error(err))
		usernames = nil
	}
	return vo.FromPosts(posts, usernames), nil
}
