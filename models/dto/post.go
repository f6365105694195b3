package dto

import "mime/multipart"

// CreatePostRequest 创建帖子请求 (multipart/form-data，图片字段名为 image)
type CreatePostRequest struct {
	CommunityID uint64 `json:"community_id" form:"community_id" binding:"required"` // 所属社区ID
	Title       string `json:"title" form:"title"`                                  // 标题，必填，最大255字符
	Content     string `json:"content" form:"content"`                              // 正文，必填，最大2000字符
}

// EditPostRequest 编辑帖子请求，图片可选，不上传则保留原图
type EditPostRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// ImageUpload 是控制器从 multipart 表单中取出的上传文件，交给服务层校验和存储
type ImageUpload struct {
	File        multipart.File
	Filename    string
	Size        int64
	ContentType string
}
