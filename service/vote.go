package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/metrics"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/myErrors"
	"github.com/Xushengqwer/community_service/repo/mysql"
)

// PostCounters 按明细重新聚合得到的帖子计数
type PostCounters struct {
	VoteCount   int64
	HiddenCount int64
}

// VoteService 维护每个用户对每个目标至多一票，并保证缓存计数与投票明细一致。
//
// 状态迁移:
//
//	无投票 -> 赞成/反对        计数 ±1
//	赞成 <-> 反对              计数 ±2，原记录原地修改
//	同方向重复投票             AlreadyVoted
//	任意 -> 无投票 (撤销)       计数 -value，无记录时 NoExistingVote
//
// 帖子计数在行锁内增量维护；消息计数在同一事务内按 SUM(value) 重新聚合。
type VoteService interface {
	UpvotePost(ctx context.Context, userID, slug string) (*vo.VoteResultVO, error)
	DownvotePost(ctx context.Context, userID, slug string) (*vo.VoteResultVO, error)
	RemovePostVote(ctx context.Context, userID string, postID uint64) (*vo.VoteResultVO, error)

	UpvoteMessage(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error)
	DownvoteMessage(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error)
	RemoveMessageVote(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error)

	// RecomputePostCounters 按 post_votes / hidden_posts 重算并写回单个帖子的两个计数。
	// 定时校准任务 (tasks.CounterReconcileTask) 通过 CounterReconcileRepository
	// 按批次对全表执行同样的步骤，这里是单行入口，cmd/seeder 用它核对填充结果。
	RecomputePostCounters(ctx context.Context, postID uint64) (*PostCounters, error)
	// RecomputeMessageVoteCount 按 message_votes 重算并写回单条消息的投票计数，
	// 与校准任务中的消息计数修正步骤一致。
	RecomputeMessageVoteCount(ctx context.Context, messageID uint64) (int64, error)
}

type voteService struct {
	db           *gorm.DB
	postRepo     mysql.PostRepository
	threadRepo   mysql.ThreadRepository
	voteRepo     mysql.VoteRepository
	relationRepo mysql.RelationRepository
	logger       *core.ZapLogger
}

func NewVoteService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	threadRepo mysql.ThreadRepository,
	voteRepo mysql.VoteRepository,
	relationRepo mysql.RelationRepository,
	logger *core.ZapLogger,
) VoteService {
	return &voteService{
		db:           db,
		postRepo:     postRepo,
		threadRepo:   threadRepo,
		voteRepo:     voteRepo,
		relationRepo: relationRepo,
		logger:       logger,
	}
}

// voteError 统一转换投票事务返回的错误
func (s *voteService) voteError(err error, target string, id uint64) error {
	switch {
	case errors.Is(err, myErrors.ErrRepoDuplicate):
		// 并发下同一用户的两次投票撞上唯一索引
		return myErrors.ErrAlreadyVoted
	case errors.Is(err, myErrors.ErrRepoNotFound):
		return myErrors.New(myErrors.KindNotFound, target+"不存在")
	case myErrors.KindOf(err) != myErrors.KindInternal:
		return err
	}
	s.logger.Error("投票事务失败", zap.String("target", target), zap.Uint64("id", id), zap.Error(err))
	return fmt.Errorf("投票失败: %w", err)
}

func (s *voteService) UpvotePost(ctx context.Context, userID, slug string) (*vo.VoteResultVO, error) {
	return s.votePost(ctx, userID, slug, enums.VoteUp)
}

func (s *voteService) DownvotePost(ctx context.Context, userID, slug string) (*vo.VoteResultVO, error) {
	return s.votePost(ctx, userID, slug, enums.VoteDown)
}

func (s *voteService) votePost(ctx context.Context, userID, slug string, voteType enums.VoteType) (*vo.VoteResultVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetBySlug(ctx, nil, slug, true)
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}

	action := string(voteType)
	result := &vo.VoteResultVO{UserVote: voteType}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.postRepo.LockByID(ctx, tx, post.ID); err != nil {
			return err
		}

		var delta int64
		existing, err := s.voteRepo.GetPostVote(ctx, tx, userID, post.ID)
		switch {
		case errors.Is(err, myErrors.ErrRepoNotFound):
			vote := &entities.PostVote{UserID: userID, PostID: post.ID, VoteType: voteType, Value: voteType.Value()}
			if err := s.voteRepo.CreatePostVote(ctx, tx, vote); err != nil {
				return err
			}
			delta = int64(voteType.Value())
		case err != nil:
			return err
		case existing.VoteType == voteType:
			return myErrors.ErrAlreadyVoted
		default:
			if err := s.voteRepo.UpdatePostVote(ctx, tx, existing.ID, voteType); err != nil {
				return err
			}
			delta = int64(voteType.Value() - existing.Value)
			action = "switch"
		}

		if err := s.postRepo.AdjustVoteCount(ctx, tx, post.ID, delta); err != nil {
			return err
		}
		updated, err := s.postRepo.GetByID(ctx, tx, post.ID, false)
		if err != nil {
			return err
		}
		result.VoteCount = updated.VoteCount
		return nil
	})
	if err != nil {
		return nil, s.voteError(err, "帖子", post.ID)
	}
	metrics.VotesTotal.WithLabelValues("post", action).Inc()
	return result, nil
}

func (s *voteService) RemovePostVote(ctx context.Context, userID string, postID uint64) (*vo.VoteResultVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	result := &vo.VoteResultVO{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.postRepo.LockByID(ctx, tx, postID); err != nil {
			return err
		}
		existing, err := s.voteRepo.GetPostVote(ctx, tx, userID, postID)
		if errors.Is(err, myErrors.ErrRepoNotFound) {
			return myErrors.ErrNoExistingVote
		}
		if err != nil {
			return err
		}
		if err := s.voteRepo.DeletePostVote(ctx, tx, existing.ID); err != nil {
			return err
		}
		if err := s.postRepo.AdjustVoteCount(ctx, tx, postID, -int64(existing.Value)); err != nil {
			return err
		}
		updated, err := s.postRepo.GetByID(ctx, tx, postID, false)
		if err != nil {
			return err
		}
		result.VoteCount = updated.VoteCount
		return nil
	})
	if err != nil {
		return nil, s.voteError(err, "帖子", postID)
	}
	metrics.VotesTotal.WithLabelValues("post", "remove").Inc()
	return result, nil
}

func (s *voteService) UpvoteMessage(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error) {
	return s.voteMessage(ctx, userID, messageID, enums.VoteUp)
}

func (s *voteService) DownvoteMessage(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error) {
	return s.voteMessage(ctx, userID, messageID, enums.VoteDown)
}

func (s *voteService) voteMessage(ctx context.Context, userID string, messageID uint64, voteType enums.VoteType) (*vo.VoteResultVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	action := string(voteType)
	result := &vo.VoteResultVO{UserVote: voteType}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.threadRepo.LockMessage(ctx, tx, messageID); err != nil {
			return err
		}
		existing, err := s.voteRepo.GetMessageVote(ctx, tx, userID, messageID)
		switch {
		case errors.Is(err, myErrors.ErrRepoNotFound):
			vote := &entities.MessageVote{UserID: userID, MessageID: messageID, VoteType: voteType, Value: voteType.Value()}
			if err := s.voteRepo.CreateMessageVote(ctx, tx, vote); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.VoteType == voteType:
			return myErrors.ErrAlreadyVoted
		default:
			if err := s.voteRepo.UpdateMessageVote(ctx, tx, existing.ID, voteType); err != nil {
				return err
			}
			action = "switch"
		}
		count, err := s.reaggregateMessage(ctx, tx, messageID)
		result.VoteCount = count
		return err
	})
	if err != nil {
		return nil, s.voteError(err, "消息", messageID)
	}
	metrics.VotesTotal.WithLabelValues("message", action).Inc()
	return result, nil
}

func (s *voteService) RemoveMessageVote(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	result := &vo.VoteResultVO{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.threadRepo.LockMessage(ctx, tx, messageID); err != nil {
			return err
		}
		existing, err := s.voteRepo.GetMessageVote(ctx, tx, userID, messageID)
		if errors.Is(err, myErrors.ErrRepoNotFound) {
			return myErrors.ErrNoExistingVote
		}
		if err != nil {
			return err
		}
		if err := s.voteRepo.DeleteMessageVote(ctx, tx, existing.ID); err != nil {
			return err
		}
		count, err := s.reaggregateMessage(ctx, tx, messageID)
		result.VoteCount = count
		return err
	})
	if err != nil {
		return nil, s.voteError(err, "消息", messageID)
	}
	metrics.VotesTotal.WithLabelValues("message", "remove").Inc()
	return result, nil
}

// reaggregateMessage 在事务内按明细重算消息计数并写回
func (s *voteService) reaggregateMessage(ctx context.Context, tx *gorm.DB, messageID uint64) (int64, error) {
	sum, err := s.voteRepo.SumMessageVotes(ctx, tx, messageID)
	if err != nil {
		return 0, err
	}
	if err := s.threadRepo.SetMessageVoteCount(ctx, tx, messageID, sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (s *voteService) RecomputePostCounters(ctx context.Context, postID uint64) (*PostCounters, error) {
	counters := &PostCounters{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := s.postRepo.LockByID(ctx, tx, postID)
		if err != nil {
			return err
		}
		if counters.VoteCount, err = s.voteRepo.SumPostVotes(ctx, tx, postID); err != nil {
			return err
		}
		if counters.HiddenCount, err = s.relationRepo.CountHiddenPost(ctx, tx, postID); err != nil {
			return err
		}
		if post.VoteCount != counters.VoteCount || post.HiddenCount != counters.HiddenCount {
			s.logger.Warn("帖子计数与明细不一致，已按明细修正",
				zap.Uint64("postID", postID),
				zap.Int64("storedVotes", post.VoteCount),
				zap.Int64("actualVotes", counters.VoteCount),
				zap.Int64("storedHidden", post.HiddenCount),
				zap.Int64("actualHidden", counters.HiddenCount),
			)
		}
		if err := s.postRepo.AdjustVoteCount(ctx, tx, postID, counters.VoteCount-post.VoteCount); err != nil {
			return err
		}
		return s.postRepo.AdjustHiddenCount(ctx, tx, postID, counters.HiddenCount-post.HiddenCount)
	})
	if err != nil {
		return nil, notFound(err, "帖子不存在")
	}
	return counters, nil
}

func (s *voteService) RecomputeMessageVoteCount(ctx context.Context, messageID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.threadRepo.LockMessage(ctx, tx, messageID); err != nil {
			return err
		}
		var err error
		count, err = s.reaggregateMessage(ctx, tx, messageID)
		return err
	})
	if err != nil {
		return 0, notFound(err, "消息不存在")
	}
	return count, nil
}
