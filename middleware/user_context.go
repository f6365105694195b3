package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/response"
)

// UserContextMiddleware 从网关注入的 X-User-ID 头读取当前用户，缺失时视为匿名访问
func UserContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(constant.UserIDHeader))
		if userID != "" {
			c.Set(string(constant.UserIDKey), userID)
			ctx := context.WithValue(c.Request.Context(), constant.UserIDKey, userID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireUser 要求请求已携带用户身份
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(string(constant.UserIDKey)) == "" {
			response.RespondError(c, http.StatusUnauthorized, response.ErrCodeClientUnauthorized, "用户未登录")
			return
		}
		c.Next()
	}
}

// CurrentUserID 返回当前用户 ID，匿名时为空串
func CurrentUserID(c *gin.Context) string {
	return c.GetString(string(constant.UserIDKey))
}
