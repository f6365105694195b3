package vo

import (
	"time"

	"github.com/Xushengqwer/community_service/models/enums"
)

// PostVO 帖子信息，列表和详情共用
type PostVO struct {
	ID             uint64           `json:"id"`
	CommunityID    uint64           `json:"community_id"`
	AuthorID       string           `json:"author_id"`
	AuthorUsername string           `json:"author_username,omitempty"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Slug           string           `json:"slug"`
	ImageURL       string           `json:"image_url,omitempty"`
	Status         enums.PostStatus `json:"status"`
	VoteCount      int64            `json:"vote_count"`
	HiddenCount    int64            `json:"hidden_count"`
	PrimaryChainID *uint64          `json:"primary_chain_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// PostDetailVO 帖子详情，UserVote 为当前用户的投票方向 (未投票或匿名为空)
type PostDetailVO struct {
	Post     PostVO         `json:"post"`
	UserVote enums.VoteType `json:"user_vote,omitempty"`
}

// VoteResultVO 投票操作的结果
type VoteResultVO struct {
	VoteCount int64          `json:"vote_count"`
	UserVote  enums.VoteType `json:"user_vote,omitempty"`
}

// HiddenPostsVO 当前用户隐藏的帖子 slug 列表
type HiddenPostsVO struct {
	Slugs []string `json:"slugs"`
}
