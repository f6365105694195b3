package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
)

// RelationRepository 用户之间及用户与内容之间的个人关系: 拉黑、隐藏、举报
type RelationRepository interface {
	CreateBlock(ctx context.Context, blockerID, blockedID string) error
	// DeleteBlock 返回被删除的行数，0 表示原本未拉黑
	DeleteBlock(ctx context.Context, blockerID, blockedID string) (int64, error)
	ListBlockedUsernames(ctx context.Context, blockerID string) ([]string, error)

	CreateHiddenPost(ctx context.Context, tx *gorm.DB, userID string, postID uint64) error
	DeleteHiddenPost(ctx context.Context, tx *gorm.DB, userID string, postID uint64) (int64, error)
	CountHiddenPost(ctx context.Context, db *gorm.DB, postID uint64) (int64, error)
	ListHiddenPostSlugs(ctx context.Context, userID string) ([]string, error)

	// CreateHiddenMessage 幂等: 已隐藏时不报错
	CreateHiddenMessage(ctx context.Context, userID string, messageID uint64) error
	DeleteHiddenMessage(ctx context.Context, userID string, messageID uint64) error

	CreateReport(ctx context.Context, report *entities.PostReport) error
}

type relationRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewRelationRepository(db *gorm.DB, logger *core.ZapLogger) RelationRepository {
	return &relationRepository{db: db, logger: logger}
}

func (r *relationRepository) CreateBlock(ctx context.Context, blockerID, blockedID string) error {
	block := &entities.UserBlock{BlockerID: blockerID, BlockedID: blockedID}
	return translateError(r.db.WithContext(ctx).Create(block).Error)
}

func (r *relationRepository) DeleteBlock(ctx context.Context, blockerID, blockedID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&entities.UserBlock{})
	return result.RowsAffected, result.Error
}

func (r *relationRepository) ListBlockedUsernames(ctx context.Context, blockerID string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id IN (SELECT blocked_id FROM user_blocks WHERE blocker_id = ?)", blockerID).
		Order("username ASC").
		Pluck("username", &names).Error
	return names, err
}

func (r *relationRepository) CreateHiddenPost(ctx context.Context, tx *gorm.DB, userID string, postID uint64) error {
	hidden := &entities.HiddenPost{UserID: userID, PostID: postID}
	return translateError(tx.WithContext(ctx).Create(hidden).Error)
}

func (r *relationRepository) DeleteHiddenPost(ctx context.Context, tx *gorm.DB, userID string, postID uint64) (int64, error) {
	result := tx.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&entities.HiddenPost{})
	return result.RowsAffected, result.Error
}

func (r *relationRepository) CountHiddenPost(ctx context.Context, db *gorm.DB, postID uint64) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).Model(&entities.HiddenPost{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (r *relationRepository) ListHiddenPostSlugs(ctx context.Context, userID string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Model(&entities.Post{}).
		Where("id IN (SELECT post_id FROM hidden_posts WHERE user_id = ?)", userID).
		Order("id ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *relationRepository) CreateHiddenMessage(ctx context.Context, userID string, messageID uint64) error {
	hidden := &entities.HiddenMessage{UserID: userID, MessageID: messageID}
	err := r.db.WithContext(ctx).Create(hidden).Error
	if err != nil && IsDuplicateKey(err) {
		return nil
	}
	return err
}

func (r *relationRepository) DeleteHiddenMessage(ctx context.Context, userID string, messageID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&entities.HiddenMessage{}).Error
}

func (r *relationRepository) CreateReport(ctx context.Context, report *entities.PostReport) error {
	return translateError(r.db.WithContext(ctx).Create(report).Error)
}
