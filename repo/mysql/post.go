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

// PostListQuery 帖子列表查询条件。
// 所有列表只返回 active 帖子；ViewerID 非空时排除其拉黑的作者和隐藏的帖子。
type PostListQuery struct {
	ViewerID string
	// CommunityID 限定单个社区
	CommunityID *uint64
	// FollowedBy 限定为该用户关注的社区
	FollowedBy string
	// ApprovedOnly 只包含已审核社区的帖子
	ApprovedOnly bool
	Limit        int
}

// DeleteCascadeResult 记录一次帖子级联删除各表删除的行数
type DeleteCascadeResult struct {
	Messages       int64
	MessageVotes   int64
	HiddenMessages int64
	Chains         int64
	PostVotes      int64
	HiddenPosts    int64
	Reports        int64
	Posts          int64
}

// PostRepository 定义了帖子数据的持久化操作接口。
// 需要参与事务的方法显式接收 db，调用方传入事务对象 tx 或 nil (使用默认连接)。
type PostRepository interface {
	// Create 持久化一个新的帖子记录
	Create(ctx context.Context, db *gorm.DB, post *entities.Post) error

	// GetBySlug 按 slug 查询；activeOnly 为 true 时 banned 帖子视为不存在
	GetBySlug(ctx context.Context, db *gorm.DB, slug string, activeOnly bool) (*entities.Post, error)
	GetByID(ctx context.Context, db *gorm.DB, id uint64, activeOnly bool) (*entities.Post, error)

	// LockByID 在事务内以 FOR UPDATE 锁定帖子行，用于计数器的增减
	LockByID(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Post, error)

	ListSlugsWithPrefix(ctx context.Context, db *gorm.DB, prefix string) ([]string, error)

	// UpdateContent 更新标题和正文；imageURL/imageKey 为 nil 表示不修改配图
	UpdateContent(ctx context.Context, db *gorm.DB, id uint64, title, content string, imageURL, imageKey *string) error

	// SetPrimaryChain 仅当帖子尚无主链时写入，返回是否写入成功
	SetPrimaryChain(ctx context.Context, tx *gorm.DB, postID, chainID uint64) (bool, error)

	AdjustVoteCount(ctx context.Context, tx *gorm.DB, id uint64, delta int64) error
	AdjustHiddenCount(ctx context.Context, tx *gorm.DB, id uint64, delta int64) error

	// SetStatus 切换 active/banned，返回是否真的发生了变化
	SetStatus(ctx context.Context, id uint64, status enums.PostStatus) (bool, error)

	List(ctx context.Context, q PostListQuery) ([]entities.Post, error)

	// DeleteCascade 在事务内删除帖子及其全部链、消息、投票、隐藏和举报记录
	DeleteCascade(ctx context.Context, tx *gorm.DB, postID uint64) (*DeleteCascadeResult, error)
}

type postRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostRepository 是 postRepository 的构造函数。
func NewPostRepository(db *gorm.DB, logger *core.ZapLogger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

func (r *postRepository) conn(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *postRepository) Create(ctx context.Context, db *gorm.DB, post *entities.Post) error {
	// 创建成功后，post 对象会包含 GORM 自动生成的 ID 和时间戳。
	if err := r.conn(db).WithContext(ctx).Create(post).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *postRepository) GetBySlug(ctx context.Context, db *gorm.DB, slug string, activeOnly bool) (*entities.Post, error) {
	var post entities.Post
	q := r.conn(db).WithContext(ctx).Where("slug = ?", slug)
	if activeOnly {
		q = q.Where("status = ?", enums.PostActive)
	}
	if err := q.First(&post).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, db *gorm.DB, id uint64, activeOnly bool) (*entities.Post, error) {
	var post entities.Post
	q := r.conn(db).WithContext(ctx).Where("id = ?", id)
	if activeOnly {
		q = q.Where("status = ?", enums.PostActive)
	}
	if err := q.First(&post).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *postRepository) LockByID(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Post, error) {
	var post entities.Post
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *postRepository) ListSlugsWithPrefix(ctx context.Context, db *gorm.DB, prefix string) ([]string, error) {
	var slugs []string
	err := r.conn(db).WithContext(ctx).Model(&entities.Post{}).
		Where("slug = ? OR slug LIKE ?", prefix, prefix+"-%").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *postRepository) UpdateContent(ctx context.Context, db *gorm.DB, id uint64, title, content string, imageURL, imageKey *string) error {
	updateMap := map[string]interface{}{
		"title":      title,
		"content":    content,
		"updated_at": time.Now(),
	}
	if imageURL != nil {
		updateMap["image_url"] = *imageURL
	}
	if imageKey != nil {
		updateMap["image_key"] = *imageKey
	}

	result := r.conn(db).WithContext(ctx).Model(&entities.Post{}).Where("id = ?", id).Updates(updateMap)
	if result.Error != nil {
		r.logger.Error("更新帖子数据库操作失败", zap.Uint64("postID", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *postRepository) SetPrimaryChain(ctx context.Context, tx *gorm.DB, postID, chainID uint64) (bool, error) {
	result := tx.WithContext(ctx).Model(&entities.Post{}).
		Where("id = ? AND primary_chain_id IS NULL", postID).
		UpdateColumn("primary_chain_id", chainID)
	return result.RowsAffected > 0, result.Error
}

func (r *postRepository) AdjustVoteCount(ctx context.Context, tx *gorm.DB, id uint64, delta int64) error {
	return tx.WithContext(ctx).Model(&entities.Post{}).Where("id = ?", id).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error
}

func (r *postRepository) AdjustHiddenCount(ctx context.Context, tx *gorm.DB, id uint64, delta int64) error {
	return tx.WithContext(ctx).Model(&entities.Post{}).Where("id = ?", id).
		UpdateColumn("hidden_count", gorm.Expr("hidden_count + ?", delta)).Error
}

func (r *postRepository) SetStatus(ctx context.Context, id uint64, status enums.PostStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Post{}).
		Where("id = ? AND status <> ?", id, status).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *postRepository) List(ctx context.Context, q PostListQuery) ([]entities.Post, error) {
	query := r.db.WithContext(ctx).Model(&entities.Post{}).
		Where("posts.status = ?", enums.PostActive).
		Scopes(notBlockedBy(q.ViewerID, "posts.author_id"), postNotHiddenBy(q.ViewerID, "posts.id"))

	if q.CommunityID != nil {
		query = query.Where("posts.community_id = ?", *q.CommunityID)
	}
	if q.FollowedBy != "" {
		query = query.Where("posts.community_id IN (SELECT community_id FROM community_follows WHERE user_id = ?)", q.FollowedBy)
	}
	if q.ApprovedOnly {
		query = query.Where("posts.community_id IN (SELECT id FROM communities WHERE status = ?)", enums.CommunityApproved)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var posts []entities.Post
	if err := query.Order("posts.created_at DESC, posts.id DESC").Find(&posts).Error; err != nil {
		r.logger.Error("查询帖子列表失败", zap.Error(err))
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) DeleteCascade(ctx context.Context, tx *gorm.DB, postID uint64) (*DeleteCascadeResult, error) {
	db := tx.WithContext(ctx)
	res := &DeleteCascadeResult{}
	msgIDs := db.Model(&entities.Message{}).Select("id").Where("post_id = ?", postID)

	steps := []struct {
		name  string
		count *int64
		run   func() *gorm.DB
	}{
		{"message_votes", &res.MessageVotes, func() *gorm.DB {
			return db.Where("message_id IN (?)", msgIDs).Delete(&entities.MessageVote{})
		}},
		{"hidden_messages", &res.HiddenMessages, func() *gorm.DB {
			return db.Where("message_id IN (?)", msgIDs).Delete(&entities.HiddenMessage{})
		}},
		{"messages", &res.Messages, func() *gorm.DB {
			return db.Where("post_id = ?", postID).Delete(&entities.Message{})
		}},
		{"chains", &res.Chains, func() *gorm.DB {
			return db.Where("post_id = ?", postID).Delete(&entities.Chain{})
		}},
		{"post_votes", &res.PostVotes, func() *gorm.DB {
			return db.Where("post_id = ?", postID).Delete(&entities.PostVote{})
		}},
		{"hidden_posts", &res.HiddenPosts, func() *gorm.DB {
			return db.Where("post_id = ?", postID).Delete(&entities.HiddenPost{})
		}},
		{"post_reports", &res.Reports, func() *gorm.DB {
			return db.Where("post_id = ?", postID).Delete(&entities.PostReport{})
		}},
		{"posts", &res.Posts, func() *gorm.DB {
			return db.Where("id = ?", postID).Delete(&entities.Post{})
		}},
	}
	for _, step := range steps {
		result := step.run()
		if result.Error != nil {
			r.logger.Error("级联删除帖子失败", zap.Uint64("postID", postID), zap.String("table", step.name), zap.Error(result.Error))
			return nil, result.Error
		}
		*step.count = result.RowsAffected
	}
	if res.Posts == 0 {
		return nil, translateError(gorm.ErrRecordNotFound)
	}
	return res, nil
}
