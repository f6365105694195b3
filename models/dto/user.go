package dto

// UpsertProfileRequest 创建或更新当前用户的资料镜像
type UpsertProfileRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
}

// UpdatePreferencesRequest 更新通知偏好
type UpdatePreferencesRequest struct {
	NotifyOnReply *bool `json:"notify_on_reply" binding:"required"`
}
