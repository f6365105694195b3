package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

// slug 唯一索引冲突时的最大重试次数
const maxSlugAttempts = 3

// CommunityService 处理社区的创建、展示和审核流程。
type CommunityService interface {
	// CreateCommunity 创建社区，初始状态为 pending，创建者即版主
	CreateCommunity(ctx context.Context, moderatorID string, req *dto.CreateCommunityRequest) (*vo.CommunityVO, error)
	// ListCommunities 返回已审核社区，以及 viewer 担任版主的待审核社区
	ListCommunities(ctx context.Context, viewerID string) ([]vo.CommunityVO, error)
	// GetCommunityDetail 返回社区信息和对 viewer 可见的最新帖子。
	// 待审核社区对版主以外的用户视为不存在。
	GetCommunityDetail(ctx context.Context, viewerID, slug string) (*vo.CommunityDetailVO, error)
	// RequestApproval 由版主发起，签发一次性审核令牌并通知管理员
	RequestApproval(ctx context.Context, requesterID, slug string) error
	// ApproveCommunity 把社区置为 approved，幂等；返回状态是否真的发生了变化
	ApproveCommunity(ctx context.Context, slug string) (bool, error)
}

type communityService struct {
	communityRepo mysql.CommunityRepository
	postRepo      mysql.PostRepository
	userRepo      mysql.UserRepository
	signer        *ActionTokenSigner
	notifier      Notifier
	opts          NotifyOptions
	logger        *core.ZapLogger
}

func NewCommunityService(
	communityRepo mysql.CommunityRepository,
	postRepo mysql.PostRepository,
	userRepo mysql.UserRepository,
	signer *ActionTokenSigner,
	notifier Notifier,
	opts NotifyOptions,
	logger *core.ZapLogger,
) CommunityService {
	return &communityService{
		communityRepo: communityRepo,
		postRepo:      postRepo,
		userRepo:      userRepo,
		signer:        signer,
		notifier:      notifier,
		opts:          opts,
		logger:        logger,
	}
}

func (s *communityService) CreateCommunity(ctx context.Context, moderatorID string, req *dto.CreateCommunityRequest) (*vo.CommunityVO, error) {
	if err := requireUser(moderatorID); err != nil {
		return nil, err
	}
	title, err := requireContent(req.Title, "社区标题")
	if err != nil {
		return nil, err
	}
	if err := checkLength(title, constant.MaxTitleLength, "社区标题"); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if err := checkLength(description, constant.MaxCommunityDescriptionLength, "社区描述"); err != nil {
		return nil, err
	}

	base := CommunitySlugBase(title)
	for attempt := 1; ; attempt++ {
		slug, err := uniqueSlug(ctx, nil, s.communityRepo.ListSlugsWithPrefix, base)
		if err != nil {
			return nil, err
		}
		community := &entities.Community{
			Title:       title,
			Description: description,
			ModeratorID: moderatorID,
			Slug:        slug,
			Status:      enums.CommunityPending,
		}
		err = s.communityRepo.Create(ctx, nil, community)
		if err == nil {
			s.logger.Info("社区已创建，等待审核",
				zap.Uint64("communityID", community.ID),
				zap.String("slug", slug),
				zap.String("moderatorID", moderatorID),
			)
			out := vo.FromCommunity(community)
			return &out, nil
		}
		if !errors.Is(err, myErrors.ErrRepoDuplicate) || attempt >= maxSlugAttempts {
			return nil, fmt.Errorf("创建社区失败: %w", err)
		}
		s.logger.Warn("社区 slug 并发冲突，重试", zap.String("slug", slug), zap.Int("attempt", attempt))
	}
}

func (s *communityService) ListCommunities(ctx context.Context, viewerID string) ([]vo.CommunityVO, error) {
	communities, err := s.communityRepo.ListVisible(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("查询社区列表失败: %w", err)
	}
	out := make([]vo.CommunityVO, 0, len(communities))
	for i := range communities {
		out = append(out, vo.FromCommunity(&communities[i]))
	}
	return out, nil
}

func (s *communityService) GetCommunityDetail(ctx context.Context, viewerID, slug string) (*vo.CommunityDetailVO, error) {
	community, err := s.communityRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, notFound(err, "社区不存在")
	}
	if community.Status != enums.CommunityApproved && community.ModeratorID != viewerID {
		return nil, myErrors.New(myErrors.KindNotFound, "社区不存在")
	}

	posts, err := s.postRepo.List(ctx, mysql.PostListQuery{
		ViewerID:    viewerID,
		CommunityID: &community.ID,
		Limit:       constant.CommunityFeedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("查询社区帖子失败: %w", err)
	}
	usernames, err := s.userRepo.GetUsernames(ctx, postAuthorIDs(posts))
	if err != nil {
		s.logger.Warn("查询帖子作者用户名失败，降级为仅返回ID", zap.Error(err))
		usernames = nil
	}

	detail := &vo.CommunityDetailVO{
		Community: vo.FromCommunity(community),
		Posts:     vo.FromPosts(posts, usernames),
	}
	if viewerID != "" {
		following, err := s.communityRepo.IsFollowing(ctx, viewerID, community.ID)
		if err != nil {
			return nil, fmt.Errorf("查询关注状态失败: %w", err)
		}
		detail.IsFollowing = following
	}
	return detail, nil
}

func (s *communityService) RequestApproval(ctx context.Context, requesterID, slug string) error {
	if err := requireUser(requesterID); err != nil {
		return err
	}
	community, err := s.communityRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return notFound(err, "社区不存在")
	}
	if community.ModeratorID != requesterID {
		return myErrors.New(myErrors.KindForbidden, "只有版主可以申请审核")
	}
	if community.Status == enums.CommunityApproved {
		return myErrors.New(myErrors.KindInvalidInput, "社区已通过审核")
	}

	token, err := s.signer.Issue(enums.ActionApproveCommunity, community.Slug)
	if err != nil {
		return err
	}
	moderatorName := requesterID
	if u, err := s.userRepo.GetByID(ctx, nil, requesterID); err == nil {
		moderatorName = u.Username
	}
	if len(s.opts.AdminRecipients) == 0 {
		s.logger.Warn("未配置管理员收件人，审核申请只记录日志", zap.String("slug", community.Slug))
	}
	dispatch(s.logger, s.notifier, events.ApprovalRequestNotification{
		CommunityID:       community.ID,
		CommunitySlug:     community.Slug,
		CommunityTitle:    community.Title,
		ModeratorUsername: moderatorName,
		ApproveURL:        ActionURL(s.opts.PublicBaseURL, token),
		Recipients:        s.opts.AdminRecipients,
	})
	s.logger.Info("已发送社区审核申请", zap.String("slug", community.Slug))
	return nil
}

func (s *communityService) ApproveCommunity(ctx context.Context, slug string) (bool, error) {
	community, err := s.communityRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return false, notFound(err, "社区不存在")
	}
	changed, err := s.communityRepo.SetStatus(ctx, community.ID, enums.CommunityApproved)
	if err != nil {
		return false, fmt.Errorf("更新社区状态失败: %w", err)
	}
	if changed {
		s.logger.Info("社区已通过审核", zap.String("slug", slug))
	}
	return changed, nil
}

func postAuthorIDs(posts []entities.Post) []string {
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}
	return ids
}
