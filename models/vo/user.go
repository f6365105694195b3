package vo

// UserProfileVO 用户资料
type UserProfileVO struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	NotifyOnReply   bool   `json:"notify_on_reply"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

// BlockedUsersVO 当前用户拉黑的用户名列表
type BlockedUsersVO struct {
	Usernames []string `json:"usernames"`
}

// ModerationResultVO 一键审核操作的执行结果
type ModerationResultVO struct {
	Action     string `json:"action"`
	TargetSlug string `json:"target_slug"`
	Result     string `json:"result"`
}
