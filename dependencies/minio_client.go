package dependencies

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
)

type minioClient struct {
	client              *minio.Client
	bucket              string
	publicAccessURLBase *url.URL
	logger              *core.ZapLogger
}

// InitMinIO 初始化 MinIO (或任意 S3 兼容存储) 客户端，必要时创建存储桶
func InitMinIO(cfg *config.MinIOConfig, logger *core.ZapLogger) (MediaStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("MinIO 配置不完整，缺少 endpoint 或 bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶 '%s' 失败: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶 '%s' 失败: %w", cfg.Bucket, err)
		}
		logger.Info("已创建 MinIO 存储桶", zap.String("bucket", cfg.Bucket))
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	pu, err := url.Parse(publicBase)
	if err != nil {
		return nil, fmt.Errorf("解析 MinIO 公共访问 URL '%s' 失败: %w", publicBase, err)
	}

	logger.Info("MinIO 客户端初始化成功",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.String("公共访问基础URL", pu.String()),
	)
	return &minioClient{client: client, bucket: cfg.Bucket, publicAccessURLBase: pu, logger: logger}, nil
}

func (m *minioClient) UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	logUpload(m.logger, "minio", objectKey, size)
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Error("MinIO 文件上传失败", zap.String("对象键", objectKey), zap.Error(err))
		return "", fmt.Errorf("上传文件 '%s' 到 MinIO 失败: %w", objectKey, err)
	}
	return joinObjectURL(m.publicAccessURLBase, objectKey), nil
}

func (m *minioClient) DeleteObject(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		m.logger.Error("MinIO 对象删除失败", zap.String("对象键", objectKey), zap.Error(err))
		return fmt.Errorf("从 MinIO 删除对象 '%s' 失败: %w", objectKey, err)
	}
	return nil
}
