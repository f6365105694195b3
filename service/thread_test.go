package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/myErrors"
)

func TestRespondToPost_EachResponseStartsNewChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Generics are here")

	first, err := env.thread.RespondToPost(ctx, bob, post.Slug, "first!")
	require.NoError(t, err)
	second, err := env.thread.RespondToPost(ctx, bob, post.Slug, "second")
	require.NoError(t, err)

	assert.NotEqual(t, first.ChainID, second.ChainID)
	assert.Equal(t, first.ChainID, first.Message.ChainID)

	stored, err := env.postRepo.GetByID(ctx, nil, post.ID, true)
	require.NoError(t, err)
	require.NotNil(t, stored.PrimaryChainID)
	assert.Equal(t, first.ChainID, *stored.PrimaryChainID, "第一条链成为主链且之后不变")

	grouped, err := env.thread.ListMessagesGroupedByChain(ctx, "", post.Slug)
	require.NoError(t, err)
	require.Len(t, grouped.Chains, 2)
	assert.Equal(t, first.ChainID, grouped.Chains[0].ChainID)
	assert.Len(t, grouped.Chains[0].Messages, 1)
	assert.Equal(t, "bob", grouped.Chains[0].Messages[0].AuthorUsername)
}

func TestRespondToChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Modules")
	other := env.newPost(t, alice, community.ID, "Workspaces")

	started, err := env.thread.RespondToPost(ctx, alice, post.Slug, "opening")
	require.NoError(t, err)

	t.Run("追加到同一条链", func(t *testing.T) {
		msg, err := env.thread.RespondToChain(ctx, alice, post.Slug, started.ChainID, "follow up")
		require.NoError(t, err)
		assert.Equal(t, started.ChainID, msg.ChainID)
		assert.Equal(t, int64(2), countRows(t, env.db, &entities.Message{}, "chain_id = ?", started.ChainID))
	})

	t.Run("链不属于该帖子", func(t *testing.T) {
		_, err := env.thread.RespondToChain(ctx, alice, other.Slug, started.ChainID, "wrong post")
		assert.ErrorIs(t, err, myErrors.ErrNotFound)
	})

	t.Run("空内容", func(t *testing.T) {
		_, err := env.thread.RespondToChain(ctx, alice, post.Slug, started.ChainID, "   ")
		assert.ErrorIs(t, err, myErrors.ErrEmptyContent)
	})
}

func TestCreateMessage_ChainAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Error handling")

	// 没有主链时创建主链
	root, err := env.thread.CreateMessage(ctx, bob, post.Slug, nil, "top level")
	require.NoError(t, err)
	stored, err := env.postRepo.GetByID(ctx, nil, post.ID, true)
	require.NoError(t, err)
	require.NotNil(t, stored.PrimaryChainID)
	assert.Equal(t, *stored.PrimaryChainID, root.ChainID)

	// 第二条无父消息也进入主链
	again, err := env.thread.CreateMessage(ctx, alice, post.Slug, nil, "also top level")
	require.NoError(t, err)
	assert.Equal(t, root.ChainID, again.ChainID)

	// 回应开启的新链不会替换主链
	responded, err := env.thread.RespondToPost(ctx, alice, post.Slug, "new thread")
	require.NoError(t, err)
	assert.NotEqual(t, root.ChainID, responded.ChainID)

	// 回复进入父消息所在的链
	reply, err := env.thread.CreateReplyToMessage(ctx, bob, post.Slug, &responded.Message.ID, "reply in thread")
	require.NoError(t, err)
	assert.Equal(t, responded.ChainID, reply.ChainID)
	require.NotNil(t, reply.ParentMessageID)
	assert.Equal(t, responded.Message.ID, *reply.ParentMessageID)

	assert.Equal(t, int64(2), countRows(t, env.db, &entities.Chain{}, "post_id = ?", post.ID))
}

func TestCreateReplyToMessage_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Channels")
	other := env.newPost(t, alice, community.ID, "Mutexes")
	foreign, err := env.thread.RespondToPost(ctx, alice, other.Slug, "elsewhere")
	require.NoError(t, err)

	t.Run("缺少父消息", func(t *testing.T) {
		_, err := env.thread.CreateReplyToMessage(ctx, alice, post.Slug, nil, "orphan")
		assert.ErrorIs(t, err, myErrors.ErrMissingParent)
		zero := uint64(0)
		_, err = env.thread.CreateReplyToMessage(ctx, alice, post.Slug, &zero, "orphan")
		assert.ErrorIs(t, err, myErrors.ErrMissingParent)
	})

	t.Run("父消息属于其他帖子", func(t *testing.T) {
		_, err := env.thread.CreateReplyToMessage(ctx, alice, post.Slug, &foreign.Message.ID, "cross post")
		assert.ErrorIs(t, err, myErrors.ErrNotFound)
	})

	t.Run("内容过长", func(t *testing.T) {
		_, err := env.thread.CreateMessage(ctx, alice, post.Slug, nil, strings.Repeat("x", 1001))
		assert.ErrorIs(t, err, myErrors.ErrInvalidInput)
	})

	t.Run("匿名", func(t *testing.T) {
		_, err := env.thread.RespondToPost(ctx, "", post.Slug, "hi")
		assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
	})
}

func TestListMessages_FiltersBlockedAndHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	carol := env.user(t, "u-carol", "carol")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Context")

	fromBob, err := env.thread.RespondToPost(ctx, bob, post.Slug, "bob speaks")
	require.NoError(t, err)
	fromCarol, err := env.thread.RespondToPost(ctx, carol, post.Slug, "carol speaks")
	require.NoError(t, err)
	_, err = env.thread.RespondToChain(ctx, alice, post.Slug, fromCarol.ChainID, "alice answers carol")
	require.NoError(t, err)

	require.NoError(t, env.identity.Block(ctx, alice, "bob"))
	require.NoError(t, env.thread.HideMessage(ctx, alice, fromCarol.Message.ID))

	grouped, err := env.thread.ListMessagesGroupedByChain(ctx, alice, post.Slug)
	require.NoError(t, err)
	// bob 的链只有被拉黑作者的消息，整条不返回
	require.Len(t, grouped.Chains, 1)
	assert.Equal(t, fromCarol.ChainID, grouped.Chains[0].ChainID)
	require.Len(t, grouped.Chains[0].Messages, 1)
	assert.Equal(t, "alice answers carol", grouped.Chains[0].Messages[0].Content)

	// 匿名访问不过滤
	anon, err := env.thread.ListMessagesGroupedByChain(ctx, "", post.Slug)
	require.NoError(t, err)
	assert.Len(t, anon.Chains, 2)

	require.NoError(t, env.thread.UnhideMessage(ctx, alice, fromCarol.Message.ID))
	require.NoError(t, env.identity.Unblock(ctx, alice, "bob"))
	grouped, err = env.thread.ListMessagesGroupedByChain(ctx, alice, post.Slug)
	require.NoError(t, err)
	assert.Len(t, grouped.Chains, 2)
	assert.Equal(t, fromBob.ChainID, grouped.Chains[0].ChainID)
}

func TestEditAndDeleteMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Interfaces")

	root, err := env.thread.RespondToPost(ctx, bob, post.Slug, "root")
	require.NoError(t, err)
	child, err := env.thread.CreateReplyToMessage(ctx, alice, post.Slug, &root.Message.ID, "child")
	require.NoError(t, err)
	_, err = env.thread.CreateReplyToMessage(ctx, bob, post.Slug, &child.ID, "grandchild")
	require.NoError(t, err)
	_, err = env.vote.UpvoteMessage(ctx, alice, child.ID)
	require.NoError(t, err)
	sibling, err := env.thread.RespondToPost(ctx, alice, post.Slug, "unrelated")
	require.NoError(t, err)

	t.Run("非作者不能编辑", func(t *testing.T) {
		_, err := env.thread.EditMessage(ctx, alice, root.Message.ID, "hijack")
		assert.ErrorIs(t, err, myErrors.ErrForbidden)
	})

	t.Run("作者编辑", func(t *testing.T) {
		edited, err := env.thread.EditMessage(ctx, bob, root.Message.ID, "root (edited)")
		require.NoError(t, err)
		assert.Equal(t, "root (edited)", edited.Content)
	})

	t.Run("编辑允许清空内容", func(t *testing.T) {
		edited, err := env.thread.EditMessage(ctx, alice, sibling.Message.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "", edited.Content)

		edited, err = env.thread.EditMessage(ctx, alice, sibling.Message.ID, "   ")
		require.NoError(t, err)
		assert.Equal(t, "   ", edited.Content)

		var stored entities.Message
		require.NoError(t, env.db.First(&stored, sibling.Message.ID).Error)
		assert.Equal(t, "   ", stored.Content)

		// 新建消息仍然拒绝空内容
		_, err = env.thread.RespondToChain(ctx, alice, post.Slug, sibling.ChainID, "  ")
		assert.ErrorIs(t, err, myErrors.ErrEmptyContent)
	})

	t.Run("删除连同后代", func(t *testing.T) {
		require.NoError(t, env.thread.DeleteMessage(ctx, bob, root.Message.ID))
		assert.Equal(t, int64(1), countRows(t, env.db, &entities.Message{}, "post_id = ?", post.ID))
		assert.Equal(t, int64(0), countRows(t, env.db, &entities.MessageVote{}, ""))
		_, err := env.thread.EditMessage(ctx, alice, sibling.Message.ID, "still here")
		assert.NoError(t, err)
	})
}

func TestRespondToPost_NotifiesAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	community := env.approvedCommunity(t, alice, "Go Users")
	post := env.newPost(t, alice, community.ID, "Testing")

	// 作者自己回应不通知
	_, err := env.thread.RespondToPost(ctx, alice, post.Slug, "self reply")
	require.NoError(t, err)
	_, err = env.thread.RespondToPost(ctx, bob, post.Slug, "nice post")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(env.notifier.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	reply, ok := env.notifier.snapshot()[0].(events.ReplyNotification)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", reply.AuthorEmail)
	assert.Equal(t, "bob", reply.ResponderName)
	assert.Equal(t, "https://community.example.com/posts/"+post.Slug, reply.PostURL)

	// 关闭通知后不再投递
	_, err = env.identity.UpdatePreferences(ctx, alice, false)
	require.NoError(t, err)
	_, err = env.thread.RespondToPost(ctx, bob, post.Slug, "another")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, env.notifier.snapshot(), 1)
}

func TestRecentMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "u-mod", "mod")
	alice := env.user(t, "u-alice", "alice")
	bob := env.user(t, "u-bob", "bob")
	carol := env.user(t, "u-carol", "carol")
	followed := env.approvedCommunity(t, mod, "Followed")
	other := env.approvedCommunity(t, mod, "Elsewhere")
	require.NoError(t, env.identity.Follow(ctx, alice, followed.Slug))

	post := env.newPost(t, mod, followed.ID, "busy")
	elsewhere := env.newPost(t, mod, other.ID, "quiet")

	fromBob, err := env.thread.RespondToPost(ctx, bob, post.Slug, "from bob")
	require.NoError(t, err)
	fromCarol, err := env.thread.RespondToPost(ctx, carol, post.Slug, "from carol")
	require.NoError(t, err)
	hidden, err := env.thread.RespondToPost(ctx, mod, post.Slug, "hidden one")
	require.NoError(t, err)
	_, err = env.thread.RespondToPost(ctx, bob, elsewhere.Slug, "not followed")
	require.NoError(t, err)

	require.NoError(t, env.identity.Block(ctx, alice, "carol"))
	require.NoError(t, env.thread.HideMessage(ctx, alice, hidden.Message.ID))

	recent, err := env.thread.RecentMessages(ctx, alice)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, fromBob.Message.ID, recent[0].ID)
	assert.Equal(t, "bob", recent[0].AuthorUsername)
	assert.NotEqual(t, fromCarol.Message.ID, recent[0].ID)

	_, err = env.moderation.SetPostStatus(ctx, post.Slug, enums.PostBanned)
	require.NoError(t, err)
	recent, err = env.thread.RecentMessages(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, recent, "封禁帖子中的消息不再出现")

	_, err = env.thread.RecentMessages(ctx, "")
	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}
