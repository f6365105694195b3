package enums

// CommunityStatus 社区审核状态
type CommunityStatus string

const (
	CommunityPending  CommunityStatus = "pending"
	CommunityApproved CommunityStatus = "approved"
)

// PostStatus 帖子状态，banned 的帖子在所有读取路径上都不可见
type PostStatus string

const (
	PostActive PostStatus = "active"
	PostBanned PostStatus = "banned"
)

// VoteType 投票方向
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Value 返回投票方向对应的计数值 (+1 / -1)
func (v VoteType) Value() int {
	if v == VoteDown {
		return -1
	}
	return 1
}

// Valid 判断是否为合法的投票方向
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// ModerationAction 一键审核操作类型
type ModerationAction string

const (
	ActionBanPost          ModerationAction = "ban_post"
	ActionUnbanPost        ModerationAction = "unban_post"
	ActionApproveCommunity ModerationAction = "approve_community"
)

// Valid 判断是否为已知的审核操作
func (a ModerationAction) Valid() bool {
	switch a {
	case ActionBanPost, ActionUnbanPost, ActionApproveCommunity:
		return true
	}
	return false
}
