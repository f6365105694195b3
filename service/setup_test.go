package service

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/repo/mysql"
	"github.com/Xushengqwer/community_service/repo/redis"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []events.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, ev events.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, ev)
	return nil
}

func (n *recordingNotifier) snapshot() []events.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.Notification(nil), n.got...)
}

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	notifier *recordingNotifier
	signer   *ActionTokenSigner

	postRepo mysql.PostRepository

	identity   IdentityService
	community  CommunityService
	post       PostService
	thread     ThreadService
	vote       VoteService
	feed       FeedService
	moderation ModerationService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 库只存在于单个连接上
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, dependencies.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := core.WrapZap(zap.NewNop())
	db := newTestDB(t)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	signer, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "test-secret"})
	require.NoError(t, err)

	postRepo := mysql.NewPostRepository(db, logger)
	communityRepo := mysql.NewCommunityRepository(db, logger)
	threadRepo := mysql.NewThreadRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)
	relationRepo := mysql.NewRelationRepository(db, logger)
	userRepo := mysql.NewUserRepository(db, logger)
	feedCache := redis.NewFeedCache(rdb, logger, 0)
	nonces := redis.NewActionNonceStore(rdb, logger)

	notifier := &recordingNotifier{}
	async := NewAsyncNotifier(notifier, logger)
	opts := NotifyOptions{
		PublicBaseURL:       "https://community.example.com",
		ModeratorRecipients: []string{"mods@example.com"},
		AdminRecipients:     []string{"admin@example.com"},
	}

	env := &testEnv{db: db, mr: mr, notifier: notifier, signer: signer, postRepo: postRepo}
	env.identity = NewIdentityService(userRepo, communityRepo, relationRepo, nil, 0, logger)
	env.community = NewCommunityService(communityRepo, postRepo, userRepo, signer, async, opts, logger)
	env.post = NewPostService(db, postRepo, communityRepo, userRepo, voteRepo, relationRepo, feedCache, nil, 0, logger)
	env.thread = NewThreadService(db, postRepo, threadRepo, userRepo, relationRepo, async, opts, logger)
	env.vote = NewVoteService(db, postRepo, threadRepo, voteRepo, relationRepo, logger)
	env.feed = NewFeedService(postRepo, userRepo, feedCache, logger)
	env.moderation = NewModerationService(postRepo, relationRepo, userRepo, env.community, signer, nonces, feedCache, async, opts, logger)
	return env
}

// user 创建资料并返回用户ID
func (e *testEnv) user(t *testing.T, id, username string) string {
	t.Helper()
	_, err := e.identity.UpsertProfile(context.Background(), id, &dto.UpsertProfileRequest{
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return id
}

// approvedCommunity 创建并直接审核通过一个社区
func (e *testEnv) approvedCommunity(t *testing.T, moderatorID, title string) *vo.CommunityVO {
	t.Helper()
	ctx := context.Background()
	c, err := e.community.CreateCommunity(ctx, moderatorID, &dto.CreateCommunityRequest{Title: title})
	require.NoError(t, err)
	changed, err := e.community.ApproveCommunity(ctx, c.Slug)
	require.NoError(t, err)
	require.True(t, changed)
	return c
}

func (e *testEnv) newPost(t *testing.T, authorID string, communityID uint64, title string) *vo.PostVO {
	t.Helper()
	p, err := e.post.CreatePost(context.Background(), authorID, &dto.CreatePostRequest{
		CommunityID: communityID,
		Title:       title,
		Content:     "content of " + title,
	}, nil)
	require.NoError(t, err)
	return p
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func tokenFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}
