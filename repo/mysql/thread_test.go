package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/entities"
	"github.com/Xushengqwer/community_service/models/enums"
)

func TestDeleteMessageTree_RemovesSpawnedChains(t *testing.T) {
	db := newTestDB(t)
	repo := NewThreadRepository(db, core.WrapZap(zap.NewNop()))
	ctx := context.Background()

	mustCreate := func(v interface{}) {
		t.Helper()
		require.NoError(t, db.Create(v).Error)
	}

	primary := &entities.Chain{PostID: 1}
	mustCreate(primary)
	root := &entities.Message{ChainID: primary.ID, PostID: 1, AuthorID: "u-1", Content: "root"}
	mustCreate(root)
	survivor := &entities.Message{ChainID: primary.ID, PostID: 1, AuthorID: "u-2", Content: "unrelated"}
	mustCreate(survivor)

	// 从 root 派生出的子会话链，以及链中的消息和一条回复
	spawned := &entities.Chain{PostID: 1, ParentMessageID: &root.ID}
	mustCreate(spawned)
	inSpawned := &entities.Message{ChainID: spawned.ID, PostID: 1, AuthorID: "u-2", Content: "in spawned chain"}
	mustCreate(inSpawned)
	reply := &entities.Message{ChainID: spawned.ID, PostID: 1, AuthorID: "u-3", Content: "reply", ParentMessageID: &inSpawned.ID}
	mustCreate(reply)

	// 子会话中的消息又派生出一条链
	nested := &entities.Chain{PostID: 1, ParentMessageID: &reply.ID}
	mustCreate(nested)
	inNested := &entities.Message{ChainID: nested.ID, PostID: 1, AuthorID: "u-1", Content: "deep"}
	mustCreate(inNested)

	mustCreate(&entities.MessageVote{UserID: "u-9", MessageID: reply.ID, VoteType: enums.VoteUp, Value: 1})
	mustCreate(&entities.MessageVote{UserID: "u-9", MessageID: survivor.ID, VoteType: enums.VoteUp, Value: 1})
	mustCreate(&entities.HiddenMessage{UserID: "u-9", MessageID: inNested.ID})

	var res *MessageTreeDeleteResult
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = repo.DeleteMessageTree(ctx, tx, root.ID)
		return err
	}))

	assert.ElementsMatch(t, []uint64{root.ID, inSpawned.ID, reply.ID, inNested.ID}, res.MessageIDs)
	assert.Equal(t, int64(2), res.Chains)
	assert.Equal(t, int64(1), res.MessageVotes)
	assert.Equal(t, int64(1), res.HiddenMessages)

	var remaining []uint64
	require.NoError(t, db.Model(&entities.Message{}).Pluck("id", &remaining).Error)
	assert.Equal(t, []uint64{survivor.ID}, remaining)

	var chains []uint64
	require.NoError(t, db.Model(&entities.Chain{}).Pluck("id", &chains).Error)
	assert.Equal(t, []uint64{primary.ID}, chains)

	var votes int64
	require.NoError(t, db.Model(&entities.MessageVote{}).Count(&votes).Error)
	assert.Equal(t, int64(1), votes)
}
