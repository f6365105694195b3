package vo

import (
	"time"

	"github.com/Xushengqwer/community_service/models/enums"
)

// CommunityVO 社区基础信息
type CommunityVO struct {
	ID          uint64                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Slug        string                `json:"slug"`
	ModeratorID string                `json:"moderator_id"`
	Status      enums.CommunityStatus `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CommunityDetailVO 社区详情，附带对当前用户可见的最新帖子
type CommunityDetailVO struct {
	Community   CommunityVO `json:"community"`
	IsFollowing bool        `json:"is_following"`
	Posts       []PostVO    `json:"posts"`
}

// FollowStatusVO 关注状态
type FollowStatusVO struct {
	IsFollowing bool `json:"is_following"`
}
