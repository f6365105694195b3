package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/dependencies"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/myErrors"
)

// storedObject 一次成功上传的结果
type storedObject struct {
	URL string
	Key string
}

// mediaUploader 对 MediaStore 的薄封装: 校验上传文件、生成对象 Key、上传
type mediaUploader struct {
	store    dependencies.MediaStore
	maxBytes int64
	logger   *core.ZapLogger
}

func newMediaUploader(store dependencies.MediaStore, maxBytes int64, logger *core.ZapLogger) *mediaUploader {
	if maxBytes <= 0 {
		maxBytes = constant.DefaultMaxUploadBytes
	}
	return &mediaUploader{store: store, maxBytes: maxBytes, logger: logger}
}

// validate 检查类型和大小，返回对象扩展名
func (m *mediaUploader) validate(img *dto.ImageUpload) (string, error) {
	if img == nil || img.File == nil || img.Size <= 0 {
		return "", myErrors.New(myErrors.KindInvalidInput, "上传的图片为空")
	}
	if img.Size > m.maxBytes {
		return "", myErrors.New(myErrors.KindInvalidInput, fmt.Sprintf("图片大小不能超过 %d 字节", m.maxBytes))
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(img.ContentType, ";")[0]))
	ext, ok := constant.AllowedImageContentTypes[contentType]
	if !ok {
		return "", myErrors.New(myErrors.KindInvalidInput, "仅支持 jpeg/png/heic/heif 格式的图片")
	}
	return ext, nil
}

// upload 校验并上传图片。未配置对象存储时返回 InvalidInput。
// 对象 Key 格式: prefix/YYYYMMDD/userID_uuid.ext
func (m *mediaUploader) upload(ctx context.Context, prefix, userID string, img *dto.ImageUpload) (*storedObject, error) {
	ext, err := m.validate(img)
	if err != nil {
		return nil, err
	}
	if m.store == nil {
		return nil, myErrors.New(myErrors.KindInvalidInput, "当前环境未启用图片上传")
	}
	key := path.Join(prefix, time.Now().Format("20060102"), fmt.Sprintf("%s_%s%s", userID, uuid.NewString(), ext))
	url, err := m.store.UploadFile(ctx, key, img.File, img.Size, strings.Split(img.ContentType, ";")[0])
	if err != nil {
		return nil, fmt.Errorf("上传图片失败: %w", err)
	}
	return &storedObject{URL: url, Key: key}, nil
}

// removeAsync 后台尽力删除对象，失败只记日志
func (m *mediaUploader) removeAsync(key string) {
	if key == "" || m.store == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.store.DeleteObject(bgCtx, key); err != nil {
			recordSideEffectFailure("media_cleanup")
			m.logger.Warn("删除对象存储文件失败", zap.String("key", key), zap.Error(err))
		}
	}()
}
