package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/myErrors"
)

type recordingApplier struct {
	mu     sync.Mutex
	events []events.ModerationDecisionEvent
	err    error
}

func (a *recordingApplier) ApplyDecision(_ context.Context, e *events.ModerationDecisionEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *e)
	return a.err
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

func decisionMessage(t *testing.T, action enums.ModerationAction, slug string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(events.ModerationDecisionEvent{EventID: "e1", Timestamp: time.Now(), Action: action, TargetSlug: slug})
	require.NoError(t, err)
	return kafka.Message{Topic: "community.moderation", Value: b}
}

func TestModerationDecisionHandler(t *testing.T) {
	logger := core.WrapZap(zap.NewNop())

	t.Run("applies decoded event", func(t *testing.T) {
		applier := &recordingApplier{}
		h := NewModerationDecisionHandler(logger, applier)
		require.NoError(t, h.Handle(context.Background(), decisionMessage(t, enums.ActionBanPost, "a-post")))
		require.Len(t, applier.events, 1)
		assert.Equal(t, enums.ActionBanPost, applier.events[0].Action)
		assert.Equal(t, "a-post", applier.events[0].TargetSlug)
	})

	t.Run("drops undecodable message", func(t *testing.T) {
		applier := &recordingApplier{}
		h := NewModerationDecisionHandler(logger, applier)
		require.NoError(t, h.Handle(context.Background(), kafka.Message{Value: []byte("{not json")}))
		assert.Empty(t, applier.events)
	})

	t.Run("acknowledges missing target", func(t *testing.T) {
		applier := &recordingApplier{err: myErrors.New(myErrors.KindNotFound, "帖子不存在")}
		h := NewModerationDecisionHandler(logger, applier)
		assert.NoError(t, h.Handle(context.Background(), decisionMessage(t, enums.ActionUnbanPost, "gone")))
	})

	t.Run("surfaces internal errors", func(t *testing.T) {
		applier := &recordingApplier{err: errors.New("db down")}
		h := NewModerationDecisionHandler(logger, applier)
		assert.Error(t, h.Handle(context.Background(), decisionMessage(t, enums.ActionBanPost, "x")))
	})
}

// scriptedReader 依次返回预设消息，之后返回 io.EOF
type scriptedReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsumer_StartStopsOnEOF(t *testing.T) {
	logger := core.WrapZap(zap.NewNop())
	applier := &recordingApplier{}
	reader := &scriptedReader{msgs: []kafka.Message{
		decisionMessage(t, enums.ActionBanPost, "p1"),
		decisionMessage(t, enums.ActionApproveCommunity, "c1"),
	}}
	c := &Consumer{reader: reader, handler: NewModerationDecisionHandler(logger, applier), logger: logger, topic: "community.moderation"}

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after EOF")
	}
	assert.Equal(t, 2, applier.count())
	require.NoError(t, c.Close())
}
