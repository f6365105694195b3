package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/redis"
)

// notFound 把仓库层的未找到转换为业务 NotFound，其余错误原样返回
func notFound(err error, message string) error {
	if errors.Is(err, myErrors.ErrRepoNotFound) {
		return myErrors.New(myErrors.KindNotFound, message)
	}
	return err
}

// requireUser 拒绝匿名调用
func requireUser(userID string) error {
	if userID == "" {
		return myErrors.ErrUnauthorized
	}
	return nil
}

// checkLength 按字符数校验长度上限
func checkLength(value string, max int, field string) error {
	if utf8.RuneCountInString(value) > max {
		return myErrors.New(myErrors.KindInvalidInput, field+"过长")
	}
	return nil
}

// requireContent 去掉首尾空白后不能为空
func requireContent(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", myErrors.New(myErrors.KindEmptyContent, field+"不能为空")
	}
	return trimmed, nil
}

func recordSideEffectFailure(op string) {
	metrics.SideEffectFailures.WithLabelValues(op).Inc()
}

// invalidateFeed 在主操作提交后删除公共信息流缓存，失败只记录日志，不影响主操作结果
func invalidateFeed(ctx context.Context, logger *core.ZapLogger, cache redis.FeedCache, reason string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidatePublicFeed(ctx); err != nil {
		recordSideEffectFailure("feed_invalidate")
		logger.Warn("失效公共信息流缓存失败", zap.String("reason", reason), zap.Error(err))
	}
}

// excerpt 截取前 n 个字符用于通知正文
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
