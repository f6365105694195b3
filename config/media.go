package config

// MediaConfig 媒体存储配置，Provider 为 cos 或 minio，为空表示不启用上传
type MediaConfig struct {
	Provider       string      `mapstructure:"provider" json:"provider" yaml:"provider"`
	MaxUploadBytes int64       `mapstructure:"maxUploadBytes" json:"maxUploadBytes" yaml:"maxUploadBytes"`
	COS            COSConfig   `mapstructure:"cos" json:"cos" yaml:"cos"`
	MinIO          MinIOConfig `mapstructure:"minio" json:"minio" yaml:"minio"`
}

// COSConfig 腾讯云 COS 配置
type COSConfig struct {
	SecretID   string `mapstructure:"secretID" json:"-" yaml:"secretID"`
	SecretKey  string `mapstructure:"secretKey" json:"-" yaml:"secretKey"`
	BucketName string `mapstructure:"bucketName" json:"bucketName" yaml:"bucketName"`
	AppID      string `mapstructure:"appID" json:"appID" yaml:"appID"`
	Region     string `mapstructure:"region" json:"region" yaml:"region"`
	BaseURL    string `mapstructure:"baseURL" json:"baseURL" yaml:"baseURL"` // CDN 或自定义域名，可选
}

// MinIOConfig 自建 MinIO / S3 兼容存储配置
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKey     string `mapstructure:"accessKey" json:"-" yaml:"accessKey"`
	SecretKey     string `mapstructure:"secretKey" json:"-" yaml:"secretKey"`
	Bucket        string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	UseSSL        bool   `mapstructure:"useSSL" json:"useSSL" yaml:"useSSL"`
	PublicBaseURL string `mapstructure:"publicBaseURL" json:"publicBaseURL" yaml:"publicBaseURL"`
}
