package config

// ActionTokenConfig 管理员一键操作令牌 (封禁/解封/审核通过) 的签名配置
type ActionTokenConfig struct {
	Secret     string `mapstructure:"secret" json:"-" yaml:"secret"`
	Issuer     string `mapstructure:"issuer" json:"issuer" yaml:"issuer"`
	TTLMinutes int    `mapstructure:"ttlMinutes" json:"ttlMinutes" yaml:"ttlMinutes"`
}

// RateLimitConfig 写接口限流配置 (按用户或 IP)
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	RPS     float64 `mapstructure:"rps" json:"rps" yaml:"rps"`
	Burst   int     `mapstructure:"burst" json:"burst" yaml:"burst"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allowOrigins" json:"allowOrigins" yaml:"allowOrigins"`
	AllowCredentials bool     `mapstructure:"allowCredentials" json:"allowCredentials" yaml:"allowCredentials"`
	MaxAgeSeconds    int      `mapstructure:"maxAgeSeconds" json:"maxAgeSeconds" yaml:"maxAgeSeconds"`
}

// NotifierConfig 通知投递配置
type NotifierConfig struct {
	WebhookURL          string   `mapstructure:"webhookURL" json:"webhookURL" yaml:"webhookURL"`
	TimeoutSeconds      int      `mapstructure:"timeoutSeconds" json:"timeoutSeconds" yaml:"timeoutSeconds"`
	ModeratorRecipients []string `mapstructure:"moderatorRecipients" json:"moderatorRecipients" yaml:"moderatorRecipients"`
	AdminRecipients     []string `mapstructure:"adminRecipients" json:"adminRecipients" yaml:"adminRecipients"`
}
