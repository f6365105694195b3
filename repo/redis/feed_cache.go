package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
)

// FeedCache 缓存未登录用户看到的公共信息流。
// 公共信息流对所有人相同 (不做拉黑/隐藏过滤)，因此可以整体缓存为一个 Key。
type FeedCache interface {
	// GetPublicFeed 读取缓存；未命中返回 myErrors.ErrCacheMiss
	GetPublicFeed(ctx context.Context) ([]vo.PostVO, error)
	SetPublicFeed(ctx context.Context, posts []vo.PostVO) error
	// InvalidatePublicFeed 删除缓存，下次读取时回源重建
	InvalidatePublicFeed(ctx context.Context) error
}

type feedCache struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
	ttl         time.Duration
}

// NewFeedCache ttl <= 0 时使用 constant.DefaultPublicFeedTTL
func NewFeedCache(redisClient *redis.Client, logger *core.ZapLogger, ttl time.Duration) FeedCache {
	if ttl <= 0 {
		ttl = constant.DefaultPublicFeedTTL
	}
	return &feedCache{redisClient: redisClient, logger: logger, ttl: ttl}
}

func (c *feedCache) GetPublicFeed(ctx context.Context) ([]vo.PostVO, error) {
	key := constant.PublicFeedCacheKey
	jsonData, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("公共信息流缓存未命中", zap.String("key", key))
			return nil, myErrors.ErrCacheMiss
		}
		c.logger.Error("从 Redis 获取公共信息流失败", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("获取公共信息流缓存 (key: %s) 失败: %w", key, err)
	}

	var posts []vo.PostVO
	if jsonErr := json.Unmarshal([]byte(jsonData), &posts); jsonErr != nil {
		// 缓存数据损坏，删除后按未命中处理
		c.logger.Error("反序列化公共信息流缓存失败，删除损坏的 Key", zap.Error(jsonErr), zap.String("key", key))
		if delErr := c.redisClient.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("删除损坏的公共信息流缓存失败", zap.Error(delErr))
		}
		return nil, myErrors.ErrCacheMiss
	}
	return posts, nil
}

func (c *feedCache) SetPublicFeed(ctx context.Context, posts []vo.PostVO) error {
	if posts == nil {
		posts = []vo.PostVO{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("序列化公共信息流失败: %w", err)
	}
	if err := c.redisClient.Set(ctx, constant.PublicFeedCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Error("写入公共信息流缓存失败", zap.Error(err))
		return fmt.Errorf("写入公共信息流缓存失败: %w", err)
	}
	return nil
}

func (c *feedCache) InvalidatePublicFeed(ctx context.Context) error {
	if err := c.redisClient.Del(ctx, constant.PublicFeedCacheKey).Err(); err != nil {
		return fmt.Errorf("删除公共信息流缓存失败: %w", err)
	}
	return nil
}
