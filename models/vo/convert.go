package vo

import "github.com/Xushengqwer/community_service/models/entities"

// FromCommunity 实体转展示对象
func FromCommunity(c *entities.Community) CommunityVO {
	return CommunityVO{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Slug:        c.Slug,
		ModeratorID: c.ModeratorID,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
	}
}

func FromPost(p *entities.Post) PostVO {
	return PostVO{
		ID:             p.ID,
		CommunityID:    p.CommunityID,
		AuthorID:       p.AuthorID,
		Title:          p.Title,
		Content:        p.Content,
		Slug:           p.Slug,
		ImageURL:       p.ImageURL,
		Status:         p.Status,
		VoteCount:      p.VoteCount,
		HiddenCount:    p.HiddenCount,
		PrimaryChainID: p.PrimaryChainID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// FromPosts 批量转换，usernames 用于填充作者用户名 (可为 nil)
func FromPosts(posts []entities.Post, usernames map[string]string) []PostVO {
	out := make([]PostVO, 0, len(posts))
	for i := range posts {
		v := FromPost(&posts[i])
		v.AuthorUsername = usernames[v.AuthorID]
		out = append(out, v)
	}
	return out
}

func FromMessage(m *entities.Message) MessageVO {
	return MessageVO{
		ID:              m.ID,
		ChainID:         m.ChainID,
		PostID:          m.PostID,
		AuthorID:        m.AuthorID,
		Content:         m.Content,
		ParentMessageID: m.ParentMessageID,
		VoteCount:       m.VoteCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func FromMessages(msgs []entities.Message, usernames map[string]string) []MessageVO {
	out := make([]MessageVO, 0, len(msgs))
	for i := range msgs {
		v := FromMessage(&msgs[i])
		v.AuthorUsername = usernames[v.AuthorID]
		out = append(out, v)
	}
	return out
}

func FromUser(u *entities.User) UserProfileVO {
	return UserProfileVO{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		NotifyOnReply:   u.NotifyOnReply,
		ProfilePhotoURL: u.ProfilePhotoURL,
	}
}
