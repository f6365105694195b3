package config

// TaskConfig 包含后台定时任务相关的配置
type TaskConfig struct {
	// ReconcileCron 是计数器校准任务的 cron 表达式，为空时使用 constant.CounterReconcileCronSpec
	ReconcileCron string `mapstructure:"reconcileCron" json:"reconcileCron" yaml:"reconcileCron"`

	// FeedWarmCron 是公共信息流预热任务的 cron 表达式
	FeedWarmCron string `mapstructure:"feedWarmCron" json:"feedWarmCron" yaml:"feedWarmCron"`

	// BatchSize 是校准任务每次从数据库扫描的帖子/消息数量。
	// 扫描出的漂移记录会被拆成同样大小的批次交给 worker 修正。
	BatchSize int `mapstructure:"batchSize" json:"batchSize" yaml:"batchSize"`

	// ConcurrencyLevel 是修正漂移计数时并发 worker 的数量，主要影响同时向数据库发起更新的连接数。
	ConcurrencyLevel int `mapstructure:"concurrencyLevel" json:"concurrencyLevel" yaml:"concurrencyLevel"`
}
