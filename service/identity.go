package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

// IdentityService 管理用户资料镜像以及关注、拉黑关系。
// 认证本身由网关负责，这里的 userID 总是已认证的主体。
type IdentityService interface {
	UpsertProfile(ctx context.Context, userID string, req *dto.UpsertProfileRequest) (*vo.UserProfileVO, error)
	GetProfile(ctx context.Context, userID string) (*vo.UserProfileVO, error)
	GetProfileByUsername(ctx context.Context, username string) (*vo.UserProfileVO, error)
	UpdatePreferences(ctx context.Context, userID string, notifyOnReply bool) (*vo.UserProfileVO, error)
	// UpdateProfilePhoto 上传新头像，只保存 URL；旧对象在后台尽力删除
	UpdateProfilePhoto(ctx context.Context, userID string, img *dto.ImageUpload) (*vo.UserProfileVO, error)

	Follow(ctx context.Context, userID, communitySlug string) error
	Unfollow(ctx context.Context, userID, communitySlug string) error
	FollowStatus(ctx context.Context, userID, communitySlug string) (bool, error)
	ListFollowedCommunities(ctx context.Context, userID string) ([]vo.CommunityVO, error)

	Block(ctx context.Context, userID, username string) error
	Unblock(ctx context.Context, userID, username string) error
	ListBlockedUsernames(ctx context.Context, userID string) ([]string, error)
}

type identityService struct {
	userRepo      mysql.UserRepository
	communityRepo mysql.CommunityRepository
	relationRepo  mysql.RelationRepository
	media         *mediaUploader
	logger        *core.ZapLogger
}

// NewIdentityService 创建 IdentityService，store 可以为 nil (不启用头像上传)
func NewIdentityService(
	userRepo mysql.UserRepository,
	communityRepo mysql.CommunityRepository,
	relationRepo mysql.RelationRepository,
	store dependencies.MediaStore,
	maxUploadBytes int64,
	logger *core.ZapLogger,
) IdentityService {
	return &identityService{
		userRepo:      userRepo,
		communityRepo: communityRepo,
		relationRepo:  relationRepo,
		media:         newMediaUploader(store, maxUploadBytes, logger),
		logger:        logger,
	}
}

func (s *identityService) UpsertProfile(ctx context.Context, userID string, req *dto.UpsertProfileRequest) (*vo.UserProfileVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, myErrors.New(myErrors.KindInvalidInput, "用户名不能为空")
	}
	if err := checkLength(username, 50, "用户名"); err != nil {
		return nil, err
	}

	user := &entities.User{ID: userID, Username: username, Email: strings.TrimSpace(req.Email), NotifyOnReply: true}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		if errors.Is(err, myErrors.ErrRepoDuplicate) {
			return nil, myErrors.New(myErrors.KindInvalidInput, "用户名已被占用")
		}
		return nil, fmt.Errorf("保存用户资料失败: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *identityService) GetProfile(ctx context.Context, userID string) (*vo.UserProfileVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFound(err, "用户资料不存在")
	}
	profile := vo.FromUser(user)
	return &profile, nil
}

func (s *identityService) GetProfileByUsername(ctx context.Context, username string) (*vo.UserProfileVO, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "用户不存在")
	}
	profile := vo.FromUser(user)
	// 他人的邮箱不对外展示
	profile.Email = ""
	return &profile, nil
}

func (s *identityService) UpdatePreferences(ctx context.Context, userID string, notifyOnReply bool) (*vo.UserProfileVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePreferences(ctx, userID, notifyOnReply); err != nil {
		return nil, notFound(err, "用户资料不存在")
	}
	return s.GetProfile(ctx, userID)
}

func (s *identityService) UpdateProfilePhoto(ctx context.Context, userID string, img *dto.ImageUpload) (*vo.UserProfileVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		return nil, notFound(err, "用户资料不存在")
	}

	obj, err := s.media.upload(ctx, constant.ObjectKeyPrefixProfilePhotos, userID, img)
	if err != nil {
		return nil, err
	}
	oldKey, err := s.userRepo.UpdateProfilePhoto(ctx, userID, obj.URL, obj.Key)
	if err != nil {
		// 数据库写入失败，刚上传的对象变成孤儿，清理掉
		s.media.removeAsync(obj.Key)
		return nil, notFound(err, "用户资料不存在")
	}
	if oldKey != "" && oldKey != obj.Key {
		s.media.removeAsync(oldKey)
	}
	s.logger.Info("用户头像已更新", zap.String("userID", userID), zap.String("objectKey", obj.Key))
	return s.GetProfile(ctx, userID)
}

func (s *identityService) Follow(ctx context.Context, userID, communitySlug string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	community, err := s.communityRepo.GetBySlug(ctx, nil, communitySlug)
	if err != nil {
		return notFound(err, "社区不存在")
	}
	if err := s.communityRepo.Follow(ctx, userID, community.ID); err != nil {
		if errors.Is(err, myErrors.ErrRepoDuplicate) {
			return myErrors.ErrAlreadyFollowing
		}
		return fmt.Errorf("关注社区失败: %w", err)
	}
	return nil
}

func (s *identityService) Unfollow(ctx context.Context, userID, communitySlug string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	community, err := s.communityRepo.GetBySlug(ctx, nil, communitySlug)
	if err != nil {
		return notFound(err, "社区不存在")
	}
	rows, err := s.communityRepo.Unfollow(ctx, userID, community.ID)
	if err != nil {
		return fmt.Errorf("取消关注失败: %w", err)
	}
	if rows == 0 {
		return myErrors.ErrNotFollowing
	}
	return nil
}

func (s *identityService) FollowStatus(ctx context.Context, userID, communitySlug string) (bool, error) {
	community, err := s.communityRepo.GetBySlug(ctx, nil, communitySlug)
	if err != nil {
		return false, notFound(err, "社区不存在")
	}
	if userID == "" {
		return false, nil
	}
	return s.communityRepo.IsFollowing(ctx, userID, community.ID)
}

func (s *identityService) ListFollowedCommunities(ctx context.Context, userID string) ([]vo.CommunityVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	communities, err := s.communityRepo.ListFollowed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询已关注社区失败: %w", err)
	}
	out := make([]vo.CommunityVO, 0, len(communities))
	for i := range communities {
		out = append(out, vo.FromCommunity(&communities[i]))
	}
	return out, nil
}

func (s *identityService) Block(ctx context.Context, userID, username string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err, "用户不存在")
	}
	if target.ID == userID {
		return myErrors.New(myErrors.KindInvalidInput, "不能拉黑自己")
	}
	if err := s.relationRepo.CreateBlock(ctx, userID, target.ID); err != nil {
		if errors.Is(err, myErrors.ErrRepoDuplicate) {
			return myErrors.ErrAlreadyBlocked
		}
		return fmt.Errorf("拉黑用户失败: %w", err)
	}
	return nil
}

func (s *identityService) Unblock(ctx context.Context, userID, username string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err, "用户不存在")
	}
	rows, err := s.relationRepo.DeleteBlock(ctx, userID, target.ID)
	if err != nil {
		return fmt.Errorf("取消拉黑失败: %w", err)
	}
	if rows == 0 {
		return myErrors.ErrNotBlocked
	}
	return nil
}

func (s *identityService) ListBlockedUsernames(ctx context.Context, userID string) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	names, err := s.relationRepo.ListBlockedUsernames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询拉黑列表失败: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
