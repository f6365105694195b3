package entities

import "github.com/Xushengqwer/community_service/models/enums"

// Post 帖子实体
//   - 使用场景: 社区下的帖子，回复通过 Chain/Message 组织
//   - 表名: posts
type Post struct {
	BaseModel

	// 所属社区ID
	CommunityID uint64 `gorm:"not null;index"`

	// 作者ID
	// - 类型: char(36)，用户ID为UUID格式
	AuthorID string `gorm:"type:char(36);not null;index"`

	// 标题，必填，最大长度255个字符
	Title string `gorm:"type:varchar(255);not null"`

	// 正文，最长 2000 字符
	Content string `gorm:"type:varchar(2000);not null"`

	// slug = 截断后的标题 + 创建时间戳，创建后不再改变
	Slug string `gorm:"type:varchar(255);uniqueIndex;not null"`

	// 配图 URL 及其对象存储 Key，均可为空
	ImageURL string `gorm:"type:varchar(1023);not null;default:''"`
	ImageKey string `gorm:"type:varchar(255);not null;default:''"`

	// 状态: active / banned
	Status enums.PostStatus `gorm:"type:varchar(16);not null;default:'active';index"`

	// 投票计数，等于 post_votes 中该帖子所有 value 之和。
	// 每次投票变更时在同一事务中加行锁增量维护，校准任务负责发现漂移。
	VoteCount int64 `gorm:"not null;default:0"`

	// 隐藏计数，等于 hidden_posts 中该帖子的行数
	HiddenCount int64 `gorm:"not null;default:0"`

	// 主链ID: 不带父消息的普通消息默认挂到这条链上。
	// 在帖子的第一条链创建时写入，之后不再变化。
	PrimaryChainID *uint64 `gorm:"index"`
}
