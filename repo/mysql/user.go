package mysql

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
)

// UserRepository 用户资料镜像的持久化
type UserRepository interface {
	// Upsert 按主键插入或更新 username / email
	Upsert(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, db *gorm.DB, id string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	UpdatePreferences(ctx context.Context, id string, notifyOnReply bool) error
	// UpdateProfilePhoto 写入新头像并返回旧的对象 Key，供调用方清理
	UpdateProfilePhoto(ctx context.Context, id, url, key string) (oldKey string, err error)
	// GetUsernames 批量查询用户名，缺失的用户不会出现在结果中
	GetUsernames(ctx context.Context, ids []string) (map[string]string, error)
}

type userRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewUserRepository(db *gorm.DB, logger *core.ZapLogger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Upsert(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		r.logger.Warn("写入用户资料失败", zap.String("userID", user.ID), zap.Error(err))
		return translateError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, db *gorm.DB, id string) (*entities.User, error) {
	if db == nil {
		db = r.db
	}
	var u entities.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var u entities.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *userRepository) UpdatePreferences(ctx context.Context, id string, notifyOnReply bool) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"notify_on_reply": notifyOnReply, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) UpdateProfilePhoto(ctx context.Context, id, url, key string) (string, error) {
	var oldKey string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u entities.User
		if err := forUpdate(tx).Where("id = ?", id).First(&u).Error; err != nil {
			return translateError(err)
		}
		oldKey = u.ProfilePhotoKey
		return tx.Model(&entities.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"profile_photo_url": url,
			"profile_photo_key": key,
			"updated_at":        time.Now(),
		}).Error
	})
	if err != nil {
		return "", err
	}
	return oldKey, nil
}

func (r *userRepository) GetUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID       string
		Username string
	}
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Select("id", "username").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		r.logger.Error("批量查询用户名失败", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Username
	}
	return out, nil
}
