package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

// ThreadService 负责把消息分配到会话链，以及按链分组读取消息。
//
// 两条写入路径的链分配策略不同:
//   - RespondToPost 每次都新建一条链，消息是这条链的唯一成员
//   - CreateMessage 有父消息时进入父消息所在的链，否则进入帖子主链 (首次使用时创建)
//
// 回复某条消息永远不会派生新链，链内保持扁平。
type ThreadService interface {
	RespondToPost(ctx context.Context, authorID, postSlug, content string) (*vo.RespondResultVO, error)
	// RespondToChain 追加到帖子已有的链，链不属于该帖子时返回 NotFound
	RespondToChain(ctx context.Context, authorID, postSlug string, chainID uint64, content string) (*vo.MessageVO, error)
	// CreateReplyToMessage 必须指定父消息，否则返回 MissingParent
	CreateReplyToMessage(ctx context.Context, authorID, postSlug string, parentID *uint64, content string) (*vo.MessageVO, error)
	CreateMessage(ctx context.Context, authorID, postSlug string, parentID *uint64, content string) (*vo.MessageVO, error)

	// ListMessagesGroupedByChain 按链的创建顺序返回链，链内消息按创建时间升序。
	// 已登录时排除拉黑作者和个人隐藏的消息。
	ListMessagesGroupedByChain(ctx context.Context, viewerID, postSlug string) (*vo.PostMessagesVO, error)

	// EditMessage 仅作者可编辑；只校验长度上限，内容允许为空
	EditMessage(ctx context.Context, requesterID string, messageID uint64, content string) (*vo.MessageVO, error)
	// DeleteMessage 仅作者可删除，连同全部后代回复及其投票、隐藏记录
	DeleteMessage(ctx context.Context, requesterID string, messageID uint64) error

	HideMessage(ctx context.Context, userID string, messageID uint64) error
	UnhideMessage(ctx context.Context, userID string, messageID uint64) error

	// RecentMessages 用户关注社区内的最新消息
	RecentMessages(ctx context.Context, userID string) ([]vo.MessageVO, error)
}

type threadService struct {
	db           *gorm.DB
	postRepo     mysql.PostRepository
	threadRepo   mysql.ThreadRepository
	userRepo     mysql.UserRepository
	relationRepo mysql.RelationRepository
	notifier     Notifier
	opts         NotifyOptions
	logger       *core.ZapLogger
}

func NewThreadService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	threadRepo mysql.ThreadRepository,
	userRepo mysql.UserRepository,
	relationRepo mysql.RelationRepository,
	notifier Notifier,
	opts NotifyOptions,
	logger *core.ZapLogger,
) ThreadService {
	return &threadService{
		db:           db,
		postRepo:     postRepo,
		threadRepo:   threadRepo,
		userRepo:     userRepo,
		relationRepo: relationRepo,
		notifier:     notifier,
		opts:         opts,
		logger:       logger,
	}
}

// validateMessageContent 新建消息时内容不能为空
func validateMessageContent(content string) (string, error) {
	content, err := requireContent(content, "消息内容")
	if err != nil {
		return "", err
	}
	if err := checkLength(content, constant.MaxMessageContentLength, "消息内容"); err != nil {
		return "", err
	}
	return content, nil
}

// activePost 查询可回复的帖子
func (s *threadService) activePost(ctx context.Context, slug string) (*entities.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}
	return post, nil
}

func (s *threadService) RespondToPost(ctx context.Context, authorID, postSlug, content string) (*vo.RespondResultVO, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	content, err := validateMessageContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.activePost(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	msg := &entities.Message{PostID: post.ID, AuthorID: authorID, Content: content}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁帖子行，保证主链只被写入一次
		if _, err := s.postRepo.LockByID(ctx, tx, post.ID); err != nil {
			return err
		}
		chain := &entities.Chain{PostID: post.ID}
		if err := s.threadRepo.CreateChain(ctx, tx, chain); err != nil {
			return err
		}
		msg.ChainID = chain.ID
		if err := s.threadRepo.CreateMessage(ctx, tx, msg); err != nil {
			return err
		}
		_, err := s.postRepo.SetPrimaryChain(ctx, tx, post.ID, chain.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, myErrors.ErrRepoNotFound) {
			return nil, myErrors.New(myErrors.KindNotFound, "帖子不存在")
		}
		s.logger.Error("回应帖子失败", zap.Uint64("postID", post.ID), zap.Error(err))
		return nil, fmt.Errorf("回应帖子失败: %w", err)
	}
	metrics.MessagesCreatedTotal.WithLabelValues("respond_post").Inc()

	s.notifyReply(ctx, post, msg)

	return &vo.RespondResultVO{Message: vo.FromMessage(msg), ChainID: msg.ChainID}, nil
}

// notifyReply 通知帖子作者收到了新回应。
// 作者本人回应或作者关闭了回复通知时跳过；任何失败都只记录日志。
func (s *threadService) notifyReply(ctx context.Context, post *entities.Post, msg *entities.Message) {
	if post.AuthorID == msg.AuthorID {
		return
	}
	author, err := s.userRepo.GetByID(ctx, nil, post.AuthorID)
	if err != nil {
		s.logger.Warn("查询帖子作者失败，跳过回复通知", zap.String("authorID", post.AuthorID), zap.Error(err))
		return
	}
	if !author.NotifyOnReply || author.Email == "" {
		return
	}
	responderName := msg.AuthorID
	if u, err := s.userRepo.GetByID(ctx, nil, msg.AuthorID); err == nil {
		responderName = u.Username
	}
	dispatch(s.logger, s.notifier, events.ReplyNotification{
		PostID:         post.ID,
		PostSlug:       post.Slug,
		PostTitle:      post.Title,
		AuthorEmail:    author.Email,
		AuthorUsername: author.Username,
		ResponderName:  responderName,
		MessageID:      msg.ID,
		MessageExcerpt: excerpt(msg.Content, 200),
		PostURL:        s.opts.postURL(post.Slug),
	})
}

func (s *threadService) RespondToChain(ctx context.Context, authorID, postSlug string, chainID uint64, content string) (*vo.MessageVO, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	content, err := validateMessageContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.activePost(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	chain, err := s.threadRepo.GetChain(ctx, nil, chainID)
	if err != nil {
		return nil, notFound(err, "会话链不存在")
	}
	if chain.PostID != post.ID {
		return nil, myErrors.New(myErrors.KindNotFound, "会话链不属于该帖子")
	}

	msg := &entities.Message{ChainID: chain.ID, PostID: post.ID, AuthorID: authorID, Content: content}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.threadRepo.CreateMessage(ctx, tx, msg)
	}); err != nil {
		return nil, fmt.Errorf("追加消息失败: %w", err)
	}
	metrics.MessagesCreatedTotal.WithLabelValues("respond_chain").Inc()
	out := vo.FromMessage(msg)
	return &out, nil
}

func (s *threadService) CreateReplyToMessage(ctx context.Context, authorID, postSlug string, parentID *uint64, content string) (*vo.MessageVO, error) {
	if parentID == nil || *parentID == 0 {
		return nil, myErrors.ErrMissingParent
	}
	return s.createMessage(ctx, authorID, postSlug, parentID, content, "reply")
}

func (s *threadService) CreateMessage(ctx context.Context, authorID, postSlug string, parentID *uint64, content string) (*vo.MessageVO, error) {
	return s.createMessage(ctx, authorID, postSlug, parentID, content, "generic")
}

// createMessage 有父消息时进入父消息所在的链；否则进入帖子主链，主链不存在时创建
func (s *threadService) createMessage(ctx context.Context, authorID, postSlug string, parentID *uint64, content, kind string) (*vo.MessageVO, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	content, err := validateMessageContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.activePost(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	msg := &entities.Message{PostID: post.ID, AuthorID: authorID, Content: content}
	if parentID != nil && *parentID != 0 {
		parent, err := s.threadRepo.GetMessage(ctx, nil, *parentID)
		if err != nil {
			return nil, notFound(err, "父消息不存在")
		}
		if parent.PostID != post.ID {
			return nil, myErrors.New(myErrors.KindNotFound, "父消息不属于该帖子")
		}
		msg.ChainID = parent.ChainID
		msg.ParentMessageID = &parent.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if msg.ChainID == 0 {
			chainID, err := s.ensurePrimaryChain(ctx, tx, post.ID)
			if err != nil {
				return err
			}
			msg.ChainID = chainID
		}
		return s.threadRepo.CreateMessage(ctx, tx, msg)
	})
	if err != nil {
		if errors.Is(err, myErrors.ErrRepoNotFound) {
			return nil, myErrors.New(myErrors.KindNotFound, "帖子不存在")
		}
		s.logger.Error("创建消息失败", zap.Uint64("postID", post.ID), zap.Error(err))
		return nil, fmt.Errorf("创建消息失败: %w", err)
	}
	metrics.MessagesCreatedTotal.WithLabelValues(kind).Inc()
	out := vo.FromMessage(msg)
	return &out, nil
}

// ensurePrimaryChain 在帖子行锁内读取主链，不存在时创建并记录
func (s *threadService) ensurePrimaryChain(ctx context.Context, tx *gorm.DB, postID uint64) (uint64, error) {
	locked, err := s.postRepo.LockByID(ctx, tx, postID)
	if err != nil {
		return 0, err
	}
	if locked.PrimaryChainID != nil {
		return *locked.PrimaryChainID, nil
	}
	chain := &entities.Chain{PostID: postID}
	if err := s.threadRepo.CreateChain(ctx, tx, chain); err != nil {
		return 0, err
	}
	if _, err := s.postRepo.SetPrimaryChain(ctx, tx, postID, chain.ID); err != nil {
		return 0, err
	}
	return chain.ID, nil
}

func (s *threadService) ListMessagesGroupedByChain(ctx context.Context, viewerID, postSlug string) (*vo.PostMessagesVO, error) {
	post, err := s.activePost(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	chains, err := s.threadRepo.ListChainsByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("查询会话链失败: %w", err)
	}
	msgs, err := s.threadRepo.ListMessagesByPost(ctx, post.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("查询消息失败: %w", err)
	}
	usernames := s.usernamesFor(ctx, msgs)

	byChain := make(map[uint64][]vo.MessageVO, len(chains))
	for _, m := range vo.FromMessages(msgs, usernames) {
		byChain[m.ChainID] = append(byChain[m.ChainID], m)
	}

	out := &vo.PostMessagesVO{PostID: post.ID, Chains: make([]vo.ChainVO, 0, len(chains))}
	for _, c := range chains {
		members := byChain[c.ID]
		// 全部消息都被过滤掉的链不返回
		if len(members) == 0 {
			continue
		}
		out.Chains = append(out.Chains, vo.ChainVO{
			ChainID:         c.ID,
			ParentMessageID: c.ParentMessageID,
			CreatedAt:       c.CreatedAt,
			Messages:        members,
		})
	}
	return out, nil
}

func (s *threadService) usernamesFor(ctx context.Context, msgs []entities.Message) map[string]string {
	seen := make(map[string]struct{}, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.AuthorID]; !ok {
			seen[m.AuthorID] = struct{}{}
			ids = append(ids, m.AuthorID)
		}
	}
	usernames, err := s.userRepo.GetUsernames(ctx, ids)
	if err != nil {
		s.logger.Warn("查询消息作者用户名失败", zap.Error(err))
		return nil
	}
	return usernames
}

// ownedMessage 查询消息并校验作者
func (s *threadService) ownedMessage(ctx context.Context, requesterID string, messageID uint64) (*entities.Message, error) {
	if err := requireUser(requesterID); err != nil {
		return nil, err
	}
	msg, err := s.threadRepo.GetMessage(ctx, nil, messageID)
	if err != nil {
		return nil, notFound(err, "消息不存在")
	}
	if msg.AuthorID != requesterID {
		return nil, myErrors.New(myErrors.KindForbidden, "只有作者可以修改该消息")
	}
	return msg, nil
}

func (s *threadService) EditMessage(ctx context.Context, requesterID string, messageID uint64, content string) (*vo.MessageVO, error) {
	msg, err := s.ownedMessage(ctx, requesterID, messageID)
	if err != nil {
		return nil, err
	}
	if err := checkLength(content, constant.MaxMessageContentLength, "消息内容"); err != nil {
		return nil, err
	}
	if err := s.threadRepo.UpdateMessageContent(ctx, msg.ID, content); err != nil {
		return nil, notFound(err, "消息不存在")
	}
	updated, err := s.threadRepo.GetMessage(ctx, nil, msg.ID)
	if err != nil {
		return nil, notFound(err, "消息不存在")
	}
	out := vo.FromMessage(updated)
	return &out, nil
}

func (s *threadService) DeleteMessage(ctx context.Context, requesterID string, messageID uint64) error {
	msg, err := s.ownedMessage(ctx, requesterID, messageID)
	if err != nil {
		return err
	}
	var result *mysql.MessageTreeDeleteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.threadRepo.DeleteMessageTree(ctx, tx, msg.ID)
		return err
	})
	if err != nil {
		s.logger.Error("删除消息失败", zap.Uint64("messageID", msg.ID), zap.Error(err))
		return fmt.Errorf("删除消息失败: %w", err)
	}
	s.logger.Info("消息已删除",
		zap.Uint64("messageID", msg.ID),
		zap.Int("messages", len(result.MessageIDs)),
		zap.Int64("chains", result.Chains),
	)
	return nil
}

func (s *threadService) HideMessage(ctx context.Context, userID string, messageID uint64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.threadRepo.GetMessage(ctx, nil, messageID); err != nil {
		return notFound(err, "消息不存在")
	}
	if err := s.relationRepo.CreateHiddenMessage(ctx, userID, messageID); err != nil {
		return fmt.Errorf("隐藏消息失败: %w", err)
	}
	return nil
}

func (s *threadService) UnhideMessage(ctx context.Context, userID string, messageID uint64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.threadRepo.GetMessage(ctx, nil, messageID); err != nil {
		return notFound(err, "消息不存在")
	}
	if err := s.relationRepo.DeleteHiddenMessage(ctx, userID, messageID); err != nil {
		return fmt.Errorf("取消隐藏消息失败: %w", err)
	}
	return nil
}

func (s *threadService) RecentMessages(ctx context.Context, userID string) ([]vo.MessageVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	msgs, err := s.threadRepo.ListRecentForUser(ctx, userID, constant.RecentMessagesLimit)
	if err != nil {
		return nil, fmt.Errorf("查询最新消息失败: %w", err)
	}
	return vo.FromMessages(msgs, s.usernamesFor(ctx, msgs)), nil
}
