package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/models/events"
	"github.com/Xushengqwer/community_service/service"
)

// messageWriter 是 kafka.Writer 中用到的部分，便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier 把通知事件发布到 Kafka，由下游的投递服务 (邮件等) 消费。
// 它实现了 service.Notifier。
type KafkaNotifier struct {
	writer messageWriter
	logger *core.ZapLogger
	topics config.Topics
}

// NewKafkaNotifier 创建一个新的 Kafka 通知生产者实例
func NewKafkaNotifier(cfg config.KafkaConfig, logger *core.ZapLogger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaNotifier(writer, cfg.Topics, logger)
}

func newKafkaNotifier(writer messageWriter, topics config.Topics, logger *core.ZapLogger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, logger: logger, topics: topics}
}

// topicFor 每种通知对应一个主题
func (p *KafkaNotifier) topicFor(t events.NotificationType) string {
	switch t {
	case events.NotificationReply:
		return p.topics.ReplyNotification
	case events.NotificationReport:
		return p.topics.ReportNotification
	case events.NotificationApprovalRequest:
		return p.topics.ApprovalRequest
	}
	return ""
}

// Notify 实现 service.Notifier
func (p *KafkaNotifier) Notify(ctx context.Context, n events.Notification) error {
	topic := p.topicFor(n.Type())
	if topic == "" {
		return fmt.Errorf("通知类型 %s 未配置 Kafka 主题", n.Type())
	}
	event := service.NewNotificationEvent(n)
	return p.SendEvent(ctx, topic, event.EventID, event)
}

// SendEvent 发送事件到指定 Kafka 主题，key 用于分区
func (p *KafkaNotifier) SendEvent(ctx context.Context, topic, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("序列化 Kafka 事件失败", zap.Error(err), zap.String("topic", topic))
		return err
	}

	p.logger.Debug("发送 Kafka 消息",
		zap.String("topic", topic),
		zap.ByteString("payload", eventBytes))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: eventBytes,
	})
	if err != nil {
		p.logger.Error("写入 Kafka 消息失败", zap.Error(err), zap.String("topic", topic))
		return err
	}
	p.logger.Info("Kafka 消息发送成功", zap.String("topic", topic))
	return nil
}

func (p *KafkaNotifier) Close() error {
	return p.writer.Close()
}
