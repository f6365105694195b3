package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/core"
)

// RequestTimeoutMiddleware 为请求 context 设置超时，下游 DB/Redis 调用据此取消。
// timeout <= 0 时不做任何处理。
func RequestTimeoutMiddleware(logger *core.ZapLogger, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			logger.Warn("请求处理超时")
		}
	}
}
