package entities

import (
	"time"

	"github.com/Xushengqwer/community_service/models/enums"
)

// PostVote 帖子投票记录，(user_id, post_id) 唯一
type PostVote struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	UserID    string         `gorm:"type:char(36);not null;uniqueIndex:idx_post_vote_user_post,priority:1"`
	PostID    uint64         `gorm:"not null;uniqueIndex:idx_post_vote_user_post,priority:2;index"`
	VoteType  enums.VoteType `gorm:"type:varchar(8);not null"`
	Value     int            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageVote 消息投票记录，(user_id, message_id) 唯一
type MessageVote struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	UserID    string         `gorm:"type:char(36);not null;uniqueIndex:idx_message_vote_user_message,priority:1"`
	MessageID uint64         `gorm:"not null;uniqueIndex:idx_message_vote_user_message,priority:2;index"`
	VoteType  enums.VoteType `gorm:"type:varchar(8);not null"`
	Value     int            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
