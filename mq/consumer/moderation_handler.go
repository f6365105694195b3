package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/myErrors"
)

// decisionApplier 由 service.ModerationService 满足
type decisionApplier interface {
	ApplyDecision(ctx context.Context, event *events.ModerationDecisionEvent) error
}

// ModerationDecisionHandler 消费管理后台下发的审核决定 (封禁/解封帖子、通过社区审核)
type ModerationDecisionHandler struct {
	logger  *core.ZapLogger
	applier decisionApplier
}

func NewModerationDecisionHandler(logger *core.ZapLogger, applier decisionApplier) *ModerationDecisionHandler {
	return &ModerationDecisionHandler{logger: logger, applier: applier}
}

func (h *ModerationDecisionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ModerationDecisionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("反序列化审核决定消息失败，丢弃", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil // 不重试无法解析的消息
	}

	err := h.applier.ApplyDecision(ctx, &event)
	switch {
	case err == nil:
		h.logger.Info("审核决定已执行",
			zap.String("eventID", event.EventID),
			zap.String("action", string(event.Action)),
			zap.String("target", event.TargetSlug),
			zap.String("operator", event.Operator))
		return nil
	case errors.Is(err, myErrors.ErrNotFound):
		// 目标已被删除，确认消息即可
		h.logger.Warn("审核决定的目标不存在，忽略",
			zap.String("eventID", event.EventID),
			zap.String("target", event.TargetSlug))
		return nil
	case errors.Is(err, myErrors.ErrInvalidInput):
		h.logger.Error("审核决定事件无效，丢弃", zap.String("eventID", event.EventID), zap.Error(err))
		return nil
	default:
		return err
	}
}
