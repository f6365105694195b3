package events

import (
	"time"

	"github.com/Xushengqwer/community_service/models/enums"
)

// ModerationDecisionEvent 由管理后台发布到 moderationDecision 主题，
// 与邮件中的一键链接执行相同的审核动作
type ModerationDecisionEvent struct {
	EventID    string                 `json:"eventID"`
	Timestamp  time.Time              `json:"timestamp"`
	Action     enums.ModerationAction `json:"action"`
	TargetSlug string                 `json:"targetSlug"`
	Operator   string                 `json:"operator,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}
