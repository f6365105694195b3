package dto

// CreateCommunityRequest 创建社区请求
// - 标题和描述的非空、长度校验在服务层完成，以便返回统一的错误类别
type CreateCommunityRequest struct {
	Title       string `json:"title" form:"title"`             // 社区标题，必填，最大255字符
	Description string `json:"description" form:"description"` // 社区描述，可选，最大1000字符
}
