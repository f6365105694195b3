package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
)

// ActionNonceStore 记录已使用的一次性操作令牌 (jti)
type ActionNonceStore interface {
	// Consume 原子地占用 jti；首次占用返回 true，已被使用过返回 false。
	// 占用记录在 ttl 后过期，ttl 应不短于令牌的剩余有效期。
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	// Release 撤销占用，令牌可以再次使用。只在动作因服务端故障未能执行时调用。
	Release(ctx context.Context, jti string) error
}

type actionNonceStore struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
}

func NewActionNonceStore(redisClient *redis.Client, logger *core.ZapLogger) ActionNonceStore {
	return &actionNonceStore{redisClient: redisClient, logger: logger}
}

func (s *actionNonceStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	key := constant.ActionTokenNoncePrefix + jti
	ok, err := s.redisClient.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		s.logger.Error("占用操作令牌失败", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("占用操作令牌 (key: %s) 失败: %w", key, err)
	}
	return ok, nil
}

func (s *actionNonceStore) Release(ctx context.Context, jti string) error {
	key := constant.ActionTokenNoncePrefix + jti
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		s.logger.Error("释放操作令牌失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("释放操作令牌 (key: %s) 失败: %w", key, err)
	}
	return nil
}
