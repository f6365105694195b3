package config

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers" json:"brokers" yaml:"brokers"`
	Topics          Topics   `mapstructure:"topics" json:"topics" yaml:"topics"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id" json:"consumer_group_id" yaml:"consumer_group_id"`
}

type Topics struct {
	ReplyNotification  string `mapstructure:"replyNotification" yaml:"replyNotification"`   // 帖子收到回复的通知
	ReportNotification string `mapstructure:"reportNotification" yaml:"reportNotification"` // 帖子被举报的通知
	ApprovalRequest    string `mapstructure:"approvalRequest" yaml:"approvalRequest"`       // 社区审核申请
	ModerationDecision string `mapstructure:"moderationDecision" yaml:"moderationDecision"` // 管理后台下发的处置结果 (消费)
}
