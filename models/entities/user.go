package entities

import "time"

// User 用户资料镜像
//   - 使用场景: 认证由网关/用户服务负责，这里只保存本服务展示和通知需要的资料
//   - 表名: users
type User struct {
	// 用户ID，由认证方签发的 UUID
	// - 类型: char(36)，与网关透传的 X-User-ID 一致
	ID string `gorm:"type:char(36);primaryKey"`

	// 用户名，全局唯一，用于 /users/:username 查询和拉黑
	Username string `gorm:"type:varchar(50);uniqueIndex;not null"`

	// 邮箱，用于回复通知
	Email string `gorm:"type:varchar(255);not null;default:''"`

	// 是否接收"帖子被回复"通知，默认接收
	NotifyOnReply bool `gorm:"not null;default:true"`

	// 头像 URL，只存引用，不存原始字节
	ProfilePhotoURL string `gorm:"type:varchar(1023);not null;default:''"`

	// 头像在对象存储中的 Key，用于替换时删除旧对象
	ProfilePhotoKey string `gorm:"type:varchar(255);not null;default:''"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
