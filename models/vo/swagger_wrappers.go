package vo

// --- 用于成功响应且包含具体 Data 的包装器，仅供 swag 注解引用 ---

// CommunityResponseWrapper 对应 response.APIResponse[vo.CommunityVO]
type CommunityResponseWrapper struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message,omitempty" example:"success"`
	Data    CommunityVO `json:"data"`
}

// CommunityListResponseWrapper 对应 response.APIResponse[[]vo.CommunityVO]
type CommunityListResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message,omitempty" example:"success"`
	Data    []CommunityVO `json:"data"`
}

// CommunityDetailResponseWrapper 对应 response.APIResponse[vo.CommunityDetailVO]
type CommunityDetailResponseWrapper struct {
	Code    int               `json:"code" example:"0"`
	Message string            `json:"message,omitempty" example:"success"`
	Data    CommunityDetailVO `json:"data"`
}

// FollowStatusResponseWrapper 对应 response.APIResponse[vo.FollowStatusVO]
type FollowStatusResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message,omitempty" example:"success"`
	Data    FollowStatusVO `json:"data"`
}

// PostResponseWrapper 对应 response.APIResponse[vo.PostVO]
type PostResponseWrapper struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message,omitempty" example:"success"`
	Data    PostVO `json:"data"`
}

// PostListResponseWrapper 对应 response.APIResponse[[]vo.PostVO]
type PostListResponseWrapper struct {
	Code    int      `json:"code" example:"0"`
	Message string   `json:"message,omitempty" example:"success"`
	Data    []PostVO `json:"data"`
}

// PostDetailResponseWrapper 对应 response.APIResponse[vo.PostDetailVO]
type PostDetailResponseWrapper struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message,omitempty" example:"success"`
	Data    PostDetailVO `json:"data"`
}

// VoteResultResponseWrapper 对应 response.APIResponse[vo.VoteResultVO]
type VoteResultResponseWrapper struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message,omitempty" example:"success"`
	Data    VoteResultVO `json:"data"`
}

// HiddenPostsResponseWrapper 对应 response.APIResponse[vo.HiddenPostsVO]
type HiddenPostsResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message,omitempty" example:"success"`
	Data    HiddenPostsVO `json:"data"`
}

// MessageResponseWrapper 对应 response.APIResponse[vo.MessageVO]
type MessageResponseWrapper struct {
	Code    int       `json:"code" example:"0"`
	Message string    `json:"message,omitempty" example:"success"`
	Data    MessageVO `json:"data"`
}

// MessageListResponseWrapper 对应 response.APIResponse[[]vo.MessageVO]
type MessageListResponseWrapper struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message,omitempty" example:"success"`
	Data    []MessageVO `json:"data"`
}

// RespondResultResponseWrapper 对应 response.APIResponse[vo.RespondResultVO]
type RespondResultResponseWrapper struct {
	Code    int             `json:"code" example:"0"`
	Message string          `json:"message,omitempty" example:"success"`
	Data    RespondResultVO `json:"data"`
}

// PostMessagesResponseWrapper 对应 response.APIResponse[vo.PostMessagesVO]
type PostMessagesResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message,omitempty" example:"success"`
	Data    PostMessagesVO `json:"data"`
}

// UserProfileResponseWrapper 对应 response.APIResponse[vo.UserProfileVO]
type UserProfileResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message,omitempty" example:"success"`
	Data    UserProfileVO `json:"data"`
}

// BlockedUsersResponseWrapper 对应 response.APIResponse[vo.BlockedUsersVO]
type BlockedUsersResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message,omitempty" example:"success"`
	Data    BlockedUsersVO `json:"data"`
}

// ModerationResultResponseWrapper 对应 response.APIResponse[vo.ModerationResultVO]
type ModerationResultResponseWrapper struct {
	Code    int                `json:"code" example:"0"`
	Message string             `json:"message,omitempty" example:"success"`
	Data    ModerationResultVO `json:"data"`
}

// --- 用于错误响应 或 简单成功响应（只有 Code 和 Message） ---

// BaseResponseWrapper 代表一个只包含 Code 和 Message 的响应
type BaseResponseWrapper struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message" example:"success"`
	Kind    string `json:"kind,omitempty" example:"NOT_FOUND"`
}
