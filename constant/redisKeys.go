package constant

import "time"

// Redis Key 相关常量
const (
	// PublicFeedCacheKey 缓存未登录用户看到的公共信息流 (最新 PublicFeedLimit 条)。
	// Redis 类型: String，值为 []vo.PostVO 的 JSON
	PublicFeedCacheKey = "feed:public"

	// ActionTokenNoncePrefix 是一次性管理员操作令牌的 jti 占用标记前缀。
	// 示例 Key: "action_token:used:3f2a..."，值为使用时间
	// Redis 类型: String，TTL 与令牌剩余有效期一致
	ActionTokenNoncePrefix = "action_token:used:"

	// DefaultPublicFeedTTL 在配置未指定时使用
	DefaultPublicFeedTTL = 60 * time.Second
)
