package entities

// Message 消息实体，每条消息恰好属于一条链
//   - 表名: messages
type Message struct {
	BaseModel

	ChainID uint64 `gorm:"not null;index"`

	// 所属帖子ID，冗余自 chain.post_id，便于级联删除和可见性过滤
	PostID uint64 `gorm:"not null;index"`

	AuthorID string `gorm:"type:char(36);not null;index"`

	// 内容，最长 1000 字符；编辑时允许为空
	Content string `gorm:"type:varchar(1000);not null"`

	// 被回复的消息ID，顶层回应为空
	ParentMessageID *uint64 `gorm:"index"`

	// 投票计数，每次投票变更后在事务内按 SUM(value) 重新聚合
	VoteCount int64 `gorm:"not null;default:0"`
}
