package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
)

// VoteRepository 帖子/消息投票记录的持久化。
// 所有写方法都在调用方的事务中执行，计数器的维护由服务层在同一事务中完成。
type VoteRepository interface {
	GetPostVote(ctx context.Context, db *gorm.DB, userID string, postID uint64) (*entities.PostVote, error)
	CreatePostVote(ctx context.Context, tx *gorm.DB, vote *entities.PostVote) error
	UpdatePostVote(ctx context.Context, tx *gorm.DB, id uint64, voteType enums.VoteType) error
	DeletePostVote(ctx context.Context, tx *gorm.DB, id uint64) error
	SumPostVotes(ctx context.Context, db *gorm.DB, postID uint64) (int64, error)

	GetMessageVote(ctx context.Context, db *gorm.DB, userID string, messageID uint64) (*entities.MessageVote, error)
	CreateMessageVote(ctx context.Context, tx *gorm.DB, vote *entities.MessageVote) error
	UpdateMessageVote(ctx context.Context, tx *gorm.DB, id uint64, voteType enums.VoteType) error
	DeleteMessageVote(ctx context.Context, tx *gorm.DB, id uint64) error
	SumMessageVotes(ctx context.Context, db *gorm.DB, messageID uint64) (int64, error)
}

type voteRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewVoteRepository(db *gorm.DB, logger *core.ZapLogger) VoteRepository {
	return &voteRepository{db: db, logger: logger}
}

func (r *voteRepository) conn(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *voteRepository) GetPostVote(ctx context.Context, db *gorm.DB, userID string, postID uint64) (*entities.PostVote, error) {
	var v entities.PostVote
	err := r.conn(db).WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&v).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &v, nil
}

func (r *voteRepository) CreatePostVote(ctx context.Context, tx *gorm.DB, vote *entities.PostVote) error {
	return translateError(tx.WithContext(ctx).Create(vote).Error)
}

func (r *voteRepository) UpdatePostVote(ctx context.Context, tx *gorm.DB, id uint64, voteType enums.VoteType) error {
	return tx.WithContext(ctx).Model(&entities.PostVote{}).Where("id = ?", id).
		Updates(map[string]interface{}{"vote_type": voteType, "value": voteType.Value()}).Error
}

func (r *voteRepository) DeletePostVote(ctx context.Context, tx *gorm.DB, id uint64) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entities.PostVote{}).Error
}

func (r *voteRepository) SumPostVotes(ctx context.Context, db *gorm.DB, postID uint64) (int64, error) {
	var sum int64
	err := r.conn(db).WithContext(ctx).Model(&entities.PostVote{}).
		Where("post_id = ?", postID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *voteRepository) GetMessageVote(ctx context.Context, db *gorm.DB, userID string, messageID uint64) (*entities.MessageVote, error) {
	var v entities.MessageVote
	err := r.conn(db).WithContext(ctx).Where("user_id = ? AND message_id = ?", userID, messageID).First(&v).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &v, nil
}

func (r *voteRepository) CreateMessageVote(ctx context.Context, tx *gorm.DB, vote *entities.MessageVote) error {
	return translateError(tx.WithContext(ctx).Create(vote).Error)
}

func (r *voteRepository) UpdateMessageVote(ctx context.Context, tx *gorm.DB, id uint64, voteType enums.VoteType) error {
	return tx.WithContext(ctx).Model(&entities.MessageVote{}).Where("id = ?", id).
		Updates(map[string]interface{}{"vote_type": voteType, "value": voteType.Value()}).Error
}

func (r *voteRepository) DeleteMessageVote(ctx context.Context, tx *gorm.DB, id uint64) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entities.MessageVote{}).Error
}

func (r *voteRepository) SumMessageVotes(ctx context.Context, db *gorm.DB, messageID uint64) (int64, error) {
	var sum int64
	err := r.conn(db).WithContext(ctx).Model(&entities.MessageVote{}).
		Where("message_id = ?", messageID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	return sum, err
}
