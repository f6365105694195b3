package vo

import "time"

// MessageVO 消息信息
type MessageVO struct {
	ID              uint64    `json:"id"`
	ChainID         uint64    `json:"chain_id"`
	PostID          uint64    `json:"post_id"`
	AuthorID        string    `json:"author_id"`
	AuthorUsername  string    `json:"author_username,omitempty"`
	Content         string    `json:"content"`
	ParentMessageID *uint64   `json:"parent_message_id,omitempty"`
	VoteCount       int64     `json:"vote_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChainVO 一条会话链及其消息 (按创建时间升序)
type ChainVO struct {
	ChainID         uint64      `json:"chain_id"`
	ParentMessageID *uint64     `json:"parent_message_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Messages        []MessageVO `json:"messages"`
}

// RespondResultVO 顶层回应的结果，包含新建的链
type RespondResultVO struct {
	Message MessageVO `json:"message"`
	ChainID uint64    `json:"chain_id"`
}

// PostMessagesVO 按链分组的帖子消息
type PostMessagesVO struct {
	PostID uint64    `json:"post_id"`
	Chains []ChainVO `json:"chains"`
}
