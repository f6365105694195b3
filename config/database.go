package config

// SourceConfig 代表一个数据库源（主库或从库）的配置
// DSN 支持前缀：mysql:// (或无前缀)、postgres:// 、sqlite://
type SourceConfig struct {
	DSN             string `mapstructure:"dsn" yaml:"dsn"`
	MaxIdleConns    *int   `mapstructure:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`       // 使用指针以区分是否设置
	MaxOpenConns    *int   `mapstructure:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`       // 使用指针以区分是否设置
	ConnMaxLifetime *int   `mapstructure:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"` // 秒
}

// DatabaseConfig 包含主库和从库的配置
type DatabaseConfig struct {
	Write SourceConfig   `mapstructure:"write" yaml:"write"` // 主库配置
	Read  []SourceConfig `mapstructure:"read" yaml:"read"`   // 从库列表，为空表示不启用读写分离

	SharedMaxIdleConns    int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	SharedMaxOpenConns    int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	SharedConnMaxLifetime int `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 秒
}
