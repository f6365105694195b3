package entities

import "time"

// UserBlock 拉黑关系，单向: Blocker 看不到 Blocked 的内容
type UserBlock struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	BlockerID string `gorm:"type:char(36);not null;uniqueIndex:idx_block_pair,priority:1"`
	BlockedID string `gorm:"type:char(36);not null;uniqueIndex:idx_block_pair,priority:2;index"`
	CreatedAt time.Time
}

// HiddenPost 用户对帖子的个人隐藏，与全局封禁无关
type HiddenPost struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"type:char(36);not null;uniqueIndex:idx_hidden_post_pair,priority:1"`
	PostID    uint64 `gorm:"not null;uniqueIndex:idx_hidden_post_pair,priority:2;index"`
	CreatedAt time.Time
}

// HiddenMessage 用户对消息的个人隐藏
type HiddenMessage struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"type:char(36);not null;uniqueIndex:idx_hidden_message_pair,priority:1"`
	MessageID uint64 `gorm:"not null;uniqueIndex:idx_hidden_message_pair,priority:2;index"`
	CreatedAt time.Time
}

// PostReport 举报记录，每个用户对每个帖子最多举报一次。
// 举报本身不隐藏内容，只触发版主通知。
type PostReport struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PostID     uint64 `gorm:"not null;uniqueIndex:idx_report_post_reporter,priority:1"`
	ReporterID string `gorm:"type:char(36);not null;uniqueIndex:idx_report_post_reporter,priority:2;index"`
	CreatedAt  time.Time
}
