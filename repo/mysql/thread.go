package mysql

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
)

// MessageTreeDeleteResult 记录删除一棵消息子树时各表删除的行数
type MessageTreeDeleteResult struct {
	MessageIDs     []uint64
	Chains         int64
	MessageVotes   int64
	HiddenMessages int64
}

// ThreadRepository 会话链与消息的持久化
type ThreadRepository interface {
	CreateChain(ctx context.Context, tx *gorm.DB, chain *entities.Chain) error
	GetChain(ctx context.Context, db *gorm.DB, id uint64) (*entities.Chain, error)
	// ListChainsByPost 按创建顺序返回帖子的全部链
	ListChainsByPost(ctx context.Context, postID uint64) ([]entities.Chain, error)

	CreateMessage(ctx context.Context, tx *gorm.DB, msg *entities.Message) error
	GetMessage(ctx context.Context, db *gorm.DB, id uint64) (*entities.Message, error)
	LockMessage(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Message, error)
	UpdateMessageContent(ctx context.Context, id uint64, content string) error
	SetMessageVoteCount(ctx context.Context, tx *gorm.DB, id uint64, count int64) error

	// ListMessagesByPost 返回帖子下对 viewer 可见的消息，按 created_at、id 升序
	ListMessagesByPost(ctx context.Context, postID uint64, viewerID string) ([]entities.Message, error)
	// ListRecentForUser 返回用户关注的已审核社区中 active 帖子下的最新消息
	ListRecentForUser(ctx context.Context, userID string, limit int) ([]entities.Message, error)

	// DeleteMessageTree 删除消息及其全部后代 (回复和由其派生的链)，以及相关投票和隐藏记录
	DeleteMessageTree(ctx context.Context, tx *gorm.DB, rootID uint64) (*MessageTreeDeleteResult, error)
}

type threadRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewThreadRepository(db *gorm.DB, logger *core.ZapLogger) ThreadRepository {
	return &threadRepository{db: db, logger: logger}
}

func (r *threadRepository) conn(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *threadRepository) CreateChain(ctx context.Context, tx *gorm.DB, chain *entities.Chain) error {
	return tx.WithContext(ctx).Create(chain).Error
}

func (r *threadRepository) GetChain(ctx context.Context, db *gorm.DB, id uint64) (*entities.Chain, error) {
	var chain entities.Chain
	if err := r.conn(db).WithContext(ctx).Where("id = ?", id).First(&chain).Error; err != nil {
		return nil, translateError(err)
	}
	return &chain, nil
}

func (r *threadRepository) ListChainsByPost(ctx context.Context, postID uint64) ([]entities.Chain, error) {
	var chains []entities.Chain
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&chains).Error
	return chains, err
}

func (r *threadRepository) CreateMessage(ctx context.Context, tx *gorm.DB, msg *entities.Message) error {
	return tx.WithContext(ctx).Create(msg).Error
}

func (r *threadRepository) GetMessage(ctx context.Context, db *gorm.DB, id uint64) (*entities.Message, error) {
	var msg entities.Message
	if err := r.conn(db).WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

func (r *threadRepository) LockMessage(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Message, error) {
	var msg entities.Message
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

func (r *threadRepository) UpdateMessageContent(ctx context.Context, id uint64, content string) error {
	result := r.db.WithContext(ctx).Model(&entities.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *threadRepository) SetMessageVoteCount(ctx context.Context, tx *gorm.DB, id uint64, count int64) error {
	return tx.WithContext(ctx).Model(&entities.Message{}).Where("id = ?", id).
		UpdateColumn("vote_count", count).Error
}

func (r *threadRepository) ListMessagesByPost(ctx context.Context, postID uint64, viewerID string) ([]entities.Message, error) {
	var msgs []entities.Message
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Scopes(notBlockedBy(viewerID, "author_id"), messageNotHiddenBy(viewerID, "id")).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		r.logger.Error("查询帖子消息失败", zap.Uint64("postID", postID), zap.Error(err))
		return nil, err
	}
	return msgs, nil
}

func (r *threadRepository) ListRecentForUser(ctx context.Context, userID string, limit int) ([]entities.Message, error) {
	var msgs []entities.Message
	err := r.db.WithContext(ctx).Model(&entities.Message{}).
		Where("post_id IN (?)",
			r.db.Model(&entities.Post{}).Select("id").
				Where("status = ?", enums.PostActive).
				Where("community_id IN (SELECT community_id FROM community_follows WHERE user_id = ?)", userID).
				Where("community_id IN (SELECT id FROM communities WHERE status = ?)", enums.CommunityApproved),
		).
		Scopes(notBlockedBy(userID, "author_id"), messageNotHiddenBy(userID, "id")).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *threadRepository) DeleteMessageTree(ctx context.Context, tx *gorm.DB, rootID uint64) (*MessageTreeDeleteResult, error) {
	db := tx.WithContext(ctx)
	res := &MessageTreeDeleteResult{}

	// 广度优先收集: 直接回复，以及从已收集消息派生出的链中的全部消息
	seen := map[uint64]struct{}{rootID: {}}
	all := []uint64{rootID}
	var chainIDs []uint64
	frontier := []uint64{rootID}
	for len(frontier) > 0 {
		var spawned []uint64
		if err := db.Model(&entities.Chain{}).Where("parent_message_id IN ?", frontier).Pluck("id", &spawned).Error; err != nil {
			return nil, err
		}
		chainIDs = append(chainIDs, spawned...)

		var next []uint64
		q := db.Model(&entities.Message{}).Where("parent_message_id IN ?", frontier)
		if len(spawned) > 0 {
			q = q.Or("chain_id IN ?", spawned)
		}
		if err := q.Pluck("id", &next).Error; err != nil {
			return nil, err
		}

		frontier = nil
		for _, id := range next {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	res.MessageIDs = all

	result := db.Where("message_id IN ?", all).Delete(&entities.MessageVote{})
	if result.Error != nil {
		return nil, result.Error
	}
	res.MessageVotes = result.RowsAffected

	result = db.Where("message_id IN ?", all).Delete(&entities.HiddenMessage{})
	if result.Error != nil {
		return nil, result.Error
	}
	res.HiddenMessages = result.RowsAffected

	if err := db.Where("id IN ?", all).Delete(&entities.Message{}).Error; err != nil {
		return nil, err
	}
	if len(chainIDs) > 0 {
		result = db.Where("id IN ?", chainIDs).Delete(&entities.Chain{})
		if result.Error != nil {
			return nil, result.Error
		}
		res.Chains = result.RowsAffected
	}
	r.logger.Debug("已删除消息子树", zap.Uint64("rootID", rootID), zap.Int("messages", len(all)), zap.Int64("chains", res.Chains))
	return res, nil
}
