package mysql

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/myErrors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, dependencies.Migrate(db))
	return db
}

func TestVoteRepository_DuplicateVote(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoteRepository(db, core.WrapZap(zap.NewNop()))
	ctx := context.Background()

	t.Run("帖子投票", func(t *testing.T) {
		require.NoError(t, repo.CreatePostVote(ctx, db, &entities.PostVote{UserID: "u-1", PostID: 7, VoteType: enums.VoteUp, Value: 1}))
		err := repo.CreatePostVote(ctx, db, &entities.PostVote{UserID: "u-1", PostID: 7, VoteType: enums.VoteDown, Value: -1})
		assert.ErrorIs(t, err, myErrors.ErrRepoDuplicate)

		// 同一用户对其他帖子、其他用户对同一帖子都不冲突
		require.NoError(t, repo.CreatePostVote(ctx, db, &entities.PostVote{UserID: "u-1", PostID: 8, VoteType: enums.VoteUp, Value: 1}))
		require.NoError(t, repo.CreatePostVote(ctx, db, &entities.PostVote{UserID: "u-2", PostID: 7, VoteType: enums.VoteDown, Value: -1}))

		sum, err := repo.SumPostVotes(ctx, nil, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)
	})

	t.Run("消息投票", func(t *testing.T) {
		require.NoError(t, repo.CreateMessageVote(ctx, db, &entities.MessageVote{UserID: "u-1", MessageID: 3, VoteType: enums.VoteUp, Value: 1}))
		err := repo.CreateMessageVote(ctx, db, &entities.MessageVote{UserID: "u-1", MessageID: 3, VoteType: enums.VoteUp, Value: 1})
		assert.ErrorIs(t, err, myErrors.ErrRepoDuplicate)

		sum, err := repo.SumMessageVotes(ctx, nil, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), sum)
	})

	t.Run("在事务中冲突会回滚", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := repo.CreatePostVote(ctx, tx, &entities.PostVote{UserID: "u-3", PostID: 7, VoteType: enums.VoteUp, Value: 1}); err != nil {
				return err
			}
			return repo.CreatePostVote(ctx, tx, &entities.PostVote{UserID: "u-3", PostID: 7, VoteType: enums.VoteUp, Value: 1})
		})
		assert.ErrorIs(t, err, myErrors.ErrRepoDuplicate)

		_, err = repo.GetPostVote(ctx, nil, "u-3", 7)
		assert.ErrorIs(t, err, myErrors.ErrRepoNotFound)
	})
}
