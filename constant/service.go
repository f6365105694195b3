package constant

const (
	ServiceName    = "community-service"
	ServiceVersion = "1.0.0"
)

// ContextKey 是写入 gin.Context / context.Context 的键类型
type ContextKey string

const (
	// UserIDKey 存放网关透传的当前用户 ID
	UserIDKey ContextKey = "UserID"
	// UserIDHeader 是网关在认证后注入的请求头
	UserIDHeader = "X-User-ID"
	// TraceIDKey 存放当前请求的 TraceID，供日志使用
	TraceIDKey ContextKey = "TraceID"
)
