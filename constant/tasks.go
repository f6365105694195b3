package constant

const (
	// CounterReconcileCronSpec 每 30 分钟校准一次 vote_count / hidden_count
	CounterReconcileCronSpec = "*/30 * * * *"
	// PublicFeedWarmCronSpec 每分钟预热一次公共信息流
	PublicFeedWarmCronSpec = "* * * * *"

	DefaultReconcileBatchSize   = 500
	DefaultReconcileConcurrency = 4
)

// 对象存储 Key 前缀
const (
	ObjectKeyPrefixPostImages    = "community/posts/"
	ObjectKeyPrefixProfilePhotos = "community/profiles/"
)
