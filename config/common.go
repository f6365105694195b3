package config

// ZapConfig 日志配置
type ZapConfig struct {
	Level       string   `mapstructure:"level" json:"level" yaml:"level"`                   // debug / info / warn / error
	Encoding    string   `mapstructure:"encoding" json:"encoding" yaml:"encoding"`          // json 或 console
	OutputPaths []string `mapstructure:"outputPaths" json:"outputPaths" yaml:"outputPaths"` // 为空时输出到 stdout
}

// GormLogConfig GORM 日志配置
type GormLogConfig struct {
	Level                     string `mapstructure:"level" json:"level" yaml:"level"` // silent / error / warn / info
	SlowThresholdMs           int    `mapstructure:"slowThresholdMs" json:"slowThresholdMs" yaml:"slowThresholdMs"`
	IgnoreRecordNotFoundError bool   `mapstructure:"ignoreRecordNotFoundError" json:"ignoreRecordNotFoundError" yaml:"ignoreRecordNotFoundError"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port           string `mapstructure:"port" json:"port" yaml:"port"`
	RequestTimeout int    `mapstructure:"requestTimeout" json:"requestTimeout" yaml:"requestTimeout"` // 秒
	// PublicBaseURL 用于拼接邮件里的一键操作链接，例如 https://example.com
	PublicBaseURL string `mapstructure:"publicBaseURL" json:"publicBaseURL" yaml:"publicBaseURL"`
}

// TracerConfig 分布式追踪配置
type TracerConfig struct {
	Enabled          bool    `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	ExporterType     string  `mapstructure:"exporterType" json:"exporterType" yaml:"exporterType"` // stdout 或 otlp_http
	ExporterEndpoint string  `mapstructure:"exporterEndpoint" json:"exporterEndpoint" yaml:"exporterEndpoint"`
	SampleRatio      float64 `mapstructure:"sampleRatio" json:"sampleRatio" yaml:"sampleRatio"`
}
