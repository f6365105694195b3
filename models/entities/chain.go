package entities

import "time"

// Chain 会话链，是帖子下的一个分支根。
//   - ParentMessageID 为空: 对帖子的顶层回应
//   - ParentMessageID 非空: 从某条消息派生出的子会话
type Chain struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	PostID          uint64    `gorm:"not null;index"`
	ParentMessageID *uint64   `gorm:"index"`
	CreatedAt       time.Time `gorm:"index"`
}
