package dependencies

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/core"
)

// MediaStore 是对象存储的最小抽象: 上传返回公开 URL，按 Key 删除。
// 调用方负责生成合适的 objectKey。
type MediaStore interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// InitMediaStore 按 mediaConfig.provider 创建对象存储客户端。
// provider 为空时返回 nil，上传相关接口会拒绝带文件的请求。
func InitMediaStore(cfg *config.MediaConfig, logger *core.ZapLogger) (MediaStore, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		logger.Warn("未配置媒体存储，图片上传将被禁用")
		return nil, nil
	case "cos":
		return InitCOS(&cfg.COS, logger)
	case "minio":
		return InitMinIO(&cfg.MinIO, logger)
	default:
		return nil, fmt.Errorf("未知的媒体存储类型: %s", cfg.Provider)
	}
}

// joinObjectURL 把对象 Key 拼接到公共访问基础 URL 上
func joinObjectURL(base *url.URL, objectKey string) string {
	basePath := base.Path
	if basePath != "/" && !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	finalURL := *base
	finalURL.Path = basePath + strings.TrimPrefix(objectKey, "/")
	return finalURL.String()
}

func logUpload(logger *core.ZapLogger, backend, objectKey string, size int64) {
	logger.Info("开始上传文件", zap.String("backend", backend), zap.String("对象键", objectKey), zap.Int64("文件大小", size))
}
