package config

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr         string `mapstructure:"addr" json:"addr" yaml:"addr"`
	Password     string `mapstructure:"password" json:"-" yaml:"password"`
	DB           int    `mapstructure:"db" json:"db" yaml:"db"`
	PoolSize     int    `mapstructure:"poolSize" json:"poolSize" yaml:"poolSize"`
	DialTimeout  int    `mapstructure:"dialTimeout" json:"dialTimeout" yaml:"dialTimeout"` // 秒
	ReadTimeout  int    `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout"` // 秒
	WriteTimeout int    `mapstructure:"writeTimeout" json:"writeTimeout" yaml:"writeTimeout"`
}

// FeedCacheConfig 公共信息流缓存配置
type FeedCacheConfig struct {
	// TTLSeconds 是公共信息流在 Redis 中的存活时间，<=0 时使用默认值
	TTLSeconds int `mapstructure:"ttlSeconds" json:"ttlSeconds" yaml:"ttlSeconds"`
}
