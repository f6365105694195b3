package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
	"github.com/Xushengqwer/community_service/repo/redis"
)

// PostService 定义了处理帖子核心业务逻辑的接口。
type PostService interface {
	// CreatePost 在已审核社区下发帖。
	// - 图片可选，先上传对象存储，数据库写入失败时清理。
	// - slug 由截断后的标题加创建时间戳生成，之后不再改变。
	// - 成功后失效公共信息流缓存。
	CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest, img *dto.ImageUpload) (*vo.PostVO, error)

	// GetPostDetail 只返回 active 帖子；viewer 已登录时附带其投票方向
	GetPostDetail(ctx context.Context, viewerID, slug string) (*vo.PostDetailVO, error)

	// EditPost 仅作者可编辑，校验规则与创建一致；不上传图片则保留原图
	EditPost(ctx context.Context, requesterID, slug string, req *dto.EditPostRequest, img *dto.ImageUpload) (*vo.PostVO, error)

	// DeletePost 仅作者可删除。
	// 在一个事务内删除帖子下的全部消息、链、投票、隐藏和举报记录，最后删除帖子本身。
	DeletePost(ctx context.Context, requesterID, slug string) error

	// HidePost / ShowPost 维护个人隐藏记录，并在同一事务内加行锁增减 hidden_count
	HidePost(ctx context.Context, userID, slug string) error
	ShowPost(ctx context.Context, userID, slug string) error
	ListHiddenPostSlugs(ctx context.Context, userID string) ([]string, error)
}

// postService 是 PostService 接口的具体实现。
type postService struct {
	db            *gorm.DB // GORM 数据库实例，主要用于事务管理
	postRepo      mysql.PostRepository
	communityRepo mysql.CommunityRepository
	userRepo      mysql.UserRepository
	voteRepo      mysql.VoteRepository
	relationRepo  mysql.RelationRepository
	feedCache     redis.FeedCache
	media         *mediaUploader
	logger        *core.ZapLogger
	now           func() time.Time
}

// NewPostService 是 postService 的构造函数，通过依赖注入初始化服务实例。
func NewPostService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	communityRepo mysql.CommunityRepository,
	userRepo mysql.UserRepository,
	voteRepo mysql.VoteRepository,
	relationRepo mysql.RelationRepository,
	feedCache redis.FeedCache,
	store dependencies.MediaStore,
	maxUploadBytes int64,
	logger *core.ZapLogger,
) PostService {
	return &postService{
		db:            db,
		postRepo:      postRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		voteRepo:      voteRepo,
		relationRepo:  relationRepo,
		feedCache:     feedCache,
		media:         newMediaUploader(store, maxUploadBytes, logger),
		logger:        logger,
		now:           time.Now,
	}
}

// validatePostInput 校验标题和正文，返回去掉首尾空白后的值
func validatePostInput(title, content string) (string, string, error) {
	title, err := requireContent(title, "标题")
	if err != nil {
		return "", "", err
	}
	content, err = requireContent(content, "正文")
	if err != nil {
		return "", "", err
	}
	if err := checkLength(title, constant.MaxTitleLength, "标题"); err != nil {
		return "", "", err
	}
	if err := checkLength(content, constant.MaxPostContentLength, "正文"); err != nil {
		return "", "", err
	}
	return title, content, nil
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest, img *dto.ImageUpload) (*vo.PostVO, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	title, content, err := validatePostInput(req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	// 1. 社区必须存在且已审核
	community, err := s.communityRepo.GetByID(ctx, nil, req.CommunityID)
	if err != nil {
		return nil, notFound(err, "社区不存在")
	}
	if community.Status != enums.CommunityApproved {
		return nil, myErrors.ErrCommunityNotApproved
	}

	// 2. 先上传图片，避免在事务里做网络 IO
	var image *storedObject
	if img != nil {
		image, err = s.media.upload(ctx, constant.ObjectKeyPrefixPostImages, authorID, img)
		if err != nil {
			return nil, err
		}
	}

	// 3. 写入帖子，slug 撞唯一索引时重新计算并重试
	base := PostSlugBase(title, s.now())
	var post *entities.Post
	for attempt := 1; ; attempt++ {
		slug, err := uniqueSlug(ctx, nil, s.postRepo.ListSlugsWithPrefix, base)
		if err == nil {
			post = &entities.Post{
				CommunityID: community.ID,
				AuthorID:    authorID,
				Title:       title,
				Content:     content,
				Slug:        slug,
				Status:      enums.PostActive,
			}
			if image != nil {
				post.ImageURL, post.ImageKey = image.URL, image.Key
			}
			err = s.postRepo.Create(ctx, nil, post)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, myErrors.ErrRepoDuplicate) || attempt >= maxSlugAttempts {
			if image != nil {
				s.media.removeAsync(image.Key)
			}
			s.logger.Error("创建帖子失败", zap.String("authorID", authorID), zap.Error(err))
			return nil, fmt.Errorf("创建帖子失败: %w", err)
		}
		s.logger.Warn("帖子 slug 并发冲突，重试", zap.String("slug", slug), zap.Int("attempt", attempt))
	}

	s.logger.Info("帖子创建成功",
		zap.Uint64("postID", post.ID),
		zap.String("slug", post.Slug),
		zap.Uint64("communityID", community.ID),
	)
	invalidateFeed(ctx, s.logger, s.feedCache, "post_created")

	out := vo.FromPost(post)
	return &out, nil
}

func (s *postService) GetPostDetail(ctx context.Context, viewerID, slug string) (*vo.PostDetailVO, error) {
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}
	detail := &vo.PostDetailVO{Post: vo.FromPost(post)}
	if u, err := s.userRepo.GetByID(ctx, nil, post.AuthorID); err == nil {
		detail.Post.AuthorUsername = u.Username
	}

	if viewerID != "" {
		vote, err := s.voteRepo.GetPostVote(ctx, nil, viewerID, post.ID)
		switch {
		case err == nil:
			detail.UserVote = vote.VoteType
		case errors.Is(err, myErrors.ErrRepoNotFound):
		default:
			return nil, fmt.Errorf("查询用户投票失败: %w", err)
		}
	}
	return detail, nil
}

func (s *postService) EditPost(ctx context.Context, requesterID, slug string, req *dto.EditPostRequest, img *dto.ImageUpload) (*vo.PostVO, error) {
	if err := requireUser(requesterID); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}
	if post.AuthorID != requesterID {
		return nil, myErrors.New(myErrors.KindForbidden, "只有作者可以编辑帖子")
	}
	title, content, err := validatePostInput(req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	var imageURL, imageKey *string
	if img != nil {
		image, err := s.media.upload(ctx, constant.ObjectKeyPrefixPostImages, requesterID, img)
		if err != nil {
			return nil, err
		}
		imageURL, imageKey = &image.URL, &image.Key
	}

	if err := s.postRepo.UpdateContent(ctx, nil, post.ID, title, content, imageURL, imageKey); err != nil {
		if imageKey != nil {
			s.media.removeAsync(*imageKey)
		}
		return nil, notFound(err, "帖子不存在")
	}
	if imageKey != nil && post.ImageKey != "" {
		s.media.removeAsync(post.ImageKey)
	}
	invalidateFeed(ctx, s.logger, s.feedCache, "post_edited")

	updated, err := s.postRepo.GetByID(ctx, nil, post.ID, false)
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}
	out := vo.FromPost(updated)
	return &out, nil
}

func (s *postService) DeletePost(ctx context.Context, requesterID, slug string) error {
	if err := requireUser(requesterID); err != nil {
		return err
	}
	// 作者可以删除已被封禁的帖子，这里不按状态过滤
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, false)
	if err != nil {
		return notFound(err, "帖子不存在")
	}
	if post.AuthorID != requesterID {
		return myErrors.New(myErrors.KindForbidden, "只有作者可以删除帖子")
	}

	var result *mysql.DeleteCascadeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.postRepo.LockByID(ctx, tx, post.ID); err != nil {
			return err
		}
		var err error
		result, err = s.postRepo.DeleteCascade(ctx, tx, post.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, myErrors.ErrRepoNotFound) {
			return myErrors.New(myErrors.KindNotFound, "帖子不存在")
		}
		s.logger.Error("删除帖子事务失败", zap.Uint64("postID", post.ID), zap.Error(err))
		return fmt.Errorf("删除帖子失败: %w", err)
	}

	s.logger.Info("帖子已删除",
		zap.Uint64("postID", post.ID),
		zap.Int64("chains", result.Chains),
		zap.Int64("messages", result.Messages),
	)
	s.media.removeAsync(post.ImageKey)
	invalidateFeed(ctx, s.logger, s.feedCache, "post_deleted")
	return nil
}

func (s *postService) HidePost(ctx context.Context, userID, slug string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return notFound(err, "帖子不存在")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.postRepo.LockByID(ctx, tx, post.ID); err != nil {
			return err
		}
		if err := s.relationRepo.CreateHiddenPost(ctx, tx, userID, post.ID); err != nil {
			return err
		}
		return s.postRepo.AdjustHiddenCount(ctx, tx, post.ID, 1)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, myErrors.ErrRepoDuplicate):
		return myErrors.ErrAlreadyHidden
	case errors.Is(err, myErrors.ErrRepoNotFound):
		return myErrors.New(myErrors.KindNotFound, "帖子不存在")
	default:
		return fmt.Errorf("隐藏帖子失败: %w", err)
	}
}

func (s *postService) ShowPost(ctx context.Context, userID, slug string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, false)
	if err != nil {
		return notFound(err, "帖子不存在")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.postRepo.LockByID(ctx, tx, post.ID); err != nil {
			return err
		}
		rows, err := s.relationRepo.DeleteHiddenPost(ctx, tx, userID, post.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return myErrors.ErrNotHidden
		}
		return s.postRepo.AdjustHiddenCount(ctx, tx, post.ID, -1)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, myErrors.ErrNotHidden):
		return err
	case errors.Is(err, myErrors.ErrRepoNotFound):
		return myErrors.New(myErrors.KindNotFound, "帖子不存在")
	default:
		return fmt.Errorf("取消隐藏帖子失败: %w", err)
	}
}

func (s *postService) ListHiddenPostSlugs(ctx context.Context, userID string) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	slugs, err := s.relationRepo.ListHiddenPostSlugs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询隐藏帖子失败: %w", err)
	}
	if slugs == nil {
		slugs = []string{}
	}
	return slugs, nil
}
