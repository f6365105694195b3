package mysql

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
)

// CommunityRepository 社区及关注关系的持久化
type CommunityRepository interface {
	Create(ctx context.Context, db *gorm.DB, community *entities.Community) error
	GetBySlug(ctx context.Context, db *gorm.DB, slug string) (*entities.Community, error)
	GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Community, error)
	// ListSlugsWithPrefix 返回以 prefix 开头的已有 slug，用于生成不冲突的新 slug
	ListSlugsWithPrefix(ctx context.Context, db *gorm.DB, prefix string) ([]string, error)
	// ListVisible 返回已审核社区，以及 viewer 担任版主的待审核社区
	ListVisible(ctx context.Context, viewerID string) ([]entities.Community, error)
	// SetStatus 更新审核状态，返回是否真的发生了变化
	SetStatus(ctx context.Context, id uint64, status enums.CommunityStatus) (bool, error)

	Follow(ctx context.Context, userID string, communityID uint64) error
	// Unfollow 返回被删除的行数，0 表示原本未关注
	Unfollow(ctx context.Context, userID string, communityID uint64) (int64, error)
	IsFollowing(ctx context.Context, userID string, communityID uint64) (bool, error)
	ListFollowed(ctx context.Context, userID string) ([]entities.Community, error)
}

type communityRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewCommunityRepository(db *gorm.DB, logger *core.ZapLogger) CommunityRepository {
	return &communityRepository{db: db, logger: logger}
}

func (r *communityRepository) conn(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *communityRepository) Create(ctx context.Context, db *gorm.DB, community *entities.Community) error {
	if err := r.conn(db).WithContext(ctx).Create(community).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *communityRepository) GetBySlug(ctx context.Context, db *gorm.DB, slug string) (*entities.Community, error) {
	var c entities.Community
	if err := r.conn(db).WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *communityRepository) GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Community, error) {
	var c entities.Community
	if err := r.conn(db).WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *communityRepository) ListSlugsWithPrefix(ctx context.Context, db *gorm.DB, prefix string) ([]string, error) {
	var slugs []string
	err := r.conn(db).WithContext(ctx).Model(&entities.Community{}).
		Where("slug = ? OR slug LIKE ?", prefix, prefix+"-%").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *communityRepository) ListVisible(ctx context.Context, viewerID string) ([]entities.Community, error) {
	var list []entities.Community
	q := r.db.WithContext(ctx).Model(&entities.Community{})
	if viewerID != "" {
		q = q.Where("status = ? OR (status = ? AND moderator_id = ?)", enums.CommunityApproved, enums.CommunityPending, viewerID)
	} else {
		q = q.Where("status = ?", enums.CommunityApproved)
	}
	if err := q.Order("title ASC, id ASC").Find(&list).Error; err != nil {
		r.logger.Error("查询社区列表失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (r *communityRepository) SetStatus(ctx context.Context, id uint64, status enums.CommunityStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Community{}).
		Where("id = ? AND status <> ?", id, status).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *communityRepository) Follow(ctx context.Context, userID string, communityID uint64) error {
	follow := &entities.CommunityFollow{UserID: userID, CommunityID: communityID}
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *communityRepository) Unfollow(ctx context.Context, userID string, communityID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Delete(&entities.CommunityFollow{})
	return result.RowsAffected, result.Error
}

func (r *communityRepository) IsFollowing(ctx context.Context, userID string, communityID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.CommunityFollow{}).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) ListFollowed(ctx context.Context, userID string) ([]entities.Community, error) {
	var list []entities.Community
	err := r.db.WithContext(ctx).
		Where("id IN (SELECT community_id FROM community_follows WHERE user_id = ?)", userID).
		Order("title ASC, id ASC").
		Find(&list).Error
	return list, err
}
