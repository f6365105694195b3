package config

type CommunityConfig struct {
	ZapConfig         ZapConfig         `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig     GormLogConfig     `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig      ServerConfig      `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig      TracerConfig      `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	DatabaseConfig    DatabaseConfig    `mapstructure:"databaseConfig" json:"databaseConfig" yaml:"databaseConfig"`
	RedisConfig       RedisConfig       `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	KafkaConfig       KafkaConfig       `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	MediaConfig       MediaConfig       `mapstructure:"mediaConfig" json:"mediaConfig" yaml:"mediaConfig"`
	NotifierConfig    NotifierConfig    `mapstructure:"notifierConfig" json:"notifierConfig" yaml:"notifierConfig"`
	ActionTokenConfig ActionTokenConfig `mapstructure:"actionTokenConfig" json:"actionTokenConfig" yaml:"actionTokenConfig"`
	RateLimitConfig   RateLimitConfig   `mapstructure:"rateLimitConfig" json:"rateLimitConfig" yaml:"rateLimitConfig"`
	CORSConfig        CORSConfig        `mapstructure:"corsConfig" json:"corsConfig" yaml:"corsConfig"`
	FeedCacheConfig   FeedCacheConfig   `mapstructure:"feedCacheConfig" json:"feedCacheConfig" yaml:"feedCacheConfig"`
	TaskConfig        TaskConfig        `mapstructure:"taskConfig" json:"taskConfig" yaml:"taskConfig"`
}
