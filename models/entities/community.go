package entities

import (
	"time"

	"github.com/Xushengqwer/community_service/models/enums"
)

// Community 社区实体
//   - 新建社区处于 pending 状态，只有 approved 社区允许发帖，并出现在公共列表中
//   - 表名: communities
type Community struct {
	BaseModel

	// 社区标题，必填
	Title string `gorm:"type:varchar(255);not null"`

	// 社区描述，最长 1000 字符
	Description string `gorm:"type:varchar(1000);not null;default:''"`

	// 版主 (创建者) ID
	ModeratorID string `gorm:"type:char(36);not null;index"`

	// 由标题生成的 slug，冲突时追加 -1、-2...
	Slug string `gorm:"type:varchar(255);uniqueIndex;not null"`

	// 审核状态
	Status enums.CommunityStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
}

// CommunityFollow 用户关注社区关系，(user_id, community_id) 唯一
type CommunityFollow struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"type:char(36);not null;uniqueIndex:idx_follow_user_community,priority:1"`
	CommunityID uint64    `gorm:"not null;uniqueIndex:idx_follow_user_community,priority:2;index"`
	CreatedAt   time.Time
}
