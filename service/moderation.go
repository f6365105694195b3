package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
	"github.com/Xushengqwer/community_service/repo/redis"
)

// 审核动作来源，用于指标标签
const (
	moderationSourceToken = "token"
	moderationSourceKafka = "kafka"
)

// ModerationService 处理举报、一键审核令牌以及来自管理后台的审核决定。
type ModerationService interface {
	// ReportPost 记录举报 (每人每帖一次)，并把带封禁/解封链接的通知发给版主
	ReportPost(ctx context.Context, reporterID, slug string) error

	// ExecuteAction 校验令牌并执行其中的动作。
	// 令牌只能使用一次，任何校验失败都返回 InvalidActionToken。
	ExecuteAction(ctx context.Context, token string) (*vo.ModerationResultVO, error)

	// SetPostStatus 切换帖子 active/banned，返回状态是否真的发生了变化
	SetPostStatus(ctx context.Context, slug string, status enums.PostStatus) (bool, error)

	// ApplyDecision 处理 Kafka 审核决定事件
	ApplyDecision(ctx context.Context, event *events.ModerationDecisionEvent) error
}

type moderationService struct {
	postRepo     mysql.PostRepository
	relationRepo mysql.RelationRepository
	userRepo     mysql.UserRepository
	communitySvc CommunityService
	signer       *ActionTokenSigner
	nonces       redis.ActionNonceStore
	feedCache    redis.FeedCache
	notifier     Notifier
	opts         NotifyOptions
	logger       *core.ZapLogger
}

func NewModerationService(
	postRepo mysql.PostRepository,
	relationRepo mysql.RelationRepository,
	userRepo mysql.UserRepository,
	communitySvc CommunityService,
	signer *ActionTokenSigner,
	nonces redis.ActionNonceStore,
	feedCache redis.FeedCache,
	notifier Notifier,
	opts NotifyOptions,
	logger *core.ZapLogger,
) ModerationService {
	return &moderationService{
		postRepo:     postRepo,
		relationRepo: relationRepo,
		userRepo:     userRepo,
		communitySvc: communitySvc,
		signer:       signer,
		nonces:       nonces,
		feedCache:    feedCache,
		notifier:     notifier,
		opts:         opts,
		logger:       logger,
	}
}

func (s *moderationService) ReportPost(ctx context.Context, reporterID, slug string) error {
	if err := requireUser(reporterID); err != nil {
		return err
	}
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return notFound(err, "帖子不存在")
	}
	if err := s.relationRepo.CreateReport(ctx, &entities.PostReport{PostID: post.ID, ReporterID: reporterID}); err != nil {
		if errors.Is(err, myErrors.ErrRepoDuplicate) {
			return myErrors.ErrAlreadyReported
		}
		return fmt.Errorf("保存举报失败: %w", err)
	}
	s.logger.Info("帖子被举报", zap.Uint64("postID", post.ID), zap.String("reporterID", reporterID))

	// 举报已经落库，令牌签发或通知失败都不影响举报结果
	banToken, err := s.signer.Issue(enums.ActionBanPost, post.Slug)
	if err != nil {
		s.logger.Error("签发封禁令牌失败，跳过版主通知", zap.Error(err))
		return nil
	}
	unbanToken, err := s.signer.Issue(enums.ActionUnbanPost, post.Slug)
	if err != nil {
		s.logger.Error("签发解封令牌失败，跳过版主通知", zap.Error(err))
		return nil
	}
	reporterName := reporterID
	if u, err := s.userRepo.GetByID(ctx, nil, reporterID); err == nil {
		reporterName = u.Username
	}
	dispatch(s.logger, s.notifier, events.ReportNotification{
		PostID:           post.ID,
		PostSlug:         post.Slug,
		PostTitle:        post.Title,
		ReporterUsername: reporterName,
		BanURL:           ActionURL(s.opts.PublicBaseURL, banToken),
		UnbanURL:         ActionURL(s.opts.PublicBaseURL, unbanToken),
		Recipients:       s.opts.ModeratorRecipients,
	})
	return nil
}

func (s *moderationService) ExecuteAction(ctx context.Context, token string) (*vo.ModerationResultVO, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		s.logger.Warn("审核令牌校验失败", zap.Error(err))
		return nil, myErrors.ErrInvalidActionToken
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < time.Second {
		ttl = time.Second
	}
	first, err := s.nonces.Consume(ctx, claims.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("占用审核令牌失败: %w", err)
	}
	if !first {
		s.logger.Warn("审核令牌被重复使用", zap.String("jti", claims.ID), zap.String("action", string(claims.Action)))
		return nil, myErrors.ErrInvalidActionToken
	}

	changed, err := s.apply(ctx, claims.Action, claims.Target, moderationSourceToken)
	if err != nil {
		// 服务端故障时动作并未生效，归还占用以便重新点击链接
		if myErrors.KindOf(err) == myErrors.KindInternal {
			if relErr := s.nonces.Release(context.WithoutCancel(ctx), claims.ID); relErr != nil {
				s.logger.Error("归还审核令牌失败", zap.String("jti", claims.ID), zap.Error(relErr))
			}
		}
		return nil, err
	}
	result := "unchanged"
	if changed {
		result = "applied"
	}
	return &vo.ModerationResultVO{Action: string(claims.Action), TargetSlug: claims.Target, Result: result}, nil
}

func (s *moderationService) apply(ctx context.Context, action enums.ModerationAction, target, source string) (bool, error) {
	var (
		changed bool
		err     error
	)
	switch action {
	case enums.ActionBanPost:
		changed, err = s.SetPostStatus(ctx, target, enums.PostBanned)
	case enums.ActionUnbanPost:
		changed, err = s.SetPostStatus(ctx, target, enums.PostActive)
	case enums.ActionApproveCommunity:
		changed, err = s.communitySvc.ApproveCommunity(ctx, target)
	default:
		return false, myErrors.New(myErrors.KindInvalidInput, "未知的审核动作")
	}
	if err != nil {
		return false, err
	}
	metrics.ModerationActionsTotal.WithLabelValues(string(action), source).Inc()
	s.logger.Info("审核动作已执行",
		zap.String("action", string(action)),
		zap.String("target", target),
		zap.String("source", source),
		zap.Bool("changed", changed),
	)
	return changed, nil
}

func (s *moderationService) SetPostStatus(ctx context.Context, slug string, status enums.PostStatus) (bool, error) {
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, false)
	if err != nil {
		return false, notFound(err, "帖子不存在")
	}
	changed, err := s.postRepo.SetStatus(ctx, post.ID, status)
	if err != nil {
		return false, fmt.Errorf("更新帖子状态失败: %w", err)
	}
	if changed {
		invalidateFeed(ctx, s.logger, s.feedCache, "post_status_"+string(status))
	}
	return changed, nil
}

func (s *moderationService) ApplyDecision(ctx context.Context, event *events.ModerationDecisionEvent) error {
	if event == nil || !event.Action.Valid() || event.TargetSlug == "" {
		return myErrors.New(myErrors.KindInvalidInput, "审核决定事件无效")
	}
	_, err := s.apply(ctx, event.Action, event.TargetSlug, moderationSourceKafka)
	return err
}
