package dto

// RespondRequest 对帖子或指定链的回应
type RespondRequest struct {
	Content string `json:"content" form:"content"`
}

// ReplyToMessageRequest 回复某条消息，parent_message_id 必填
type ReplyToMessageRequest struct {
	ParentMessageID *uint64 `json:"parent_message_id" form:"parent_message_id"`
	Content         string  `json:"content" form:"content"`
}

// CreateMessageRequest 通用消息创建: 有父消息则进入父消息所在链，否则进入帖子主链
type CreateMessageRequest struct {
	PostSlug        string  `json:"post_slug" form:"post_slug" binding:"required"`
	ParentMessageID *uint64 `json:"parent_message_id" form:"parent_message_id"`
	Content         string  `json:"content" form:"content"`
}

// EditMessageRequest 编辑消息，内容允许为空
type EditMessageRequest struct {
	Content string `json:"content" form:"content"`
}
