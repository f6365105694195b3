package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/response"
)

// parseIDParam 解析路径中的数字 ID，失败时直接写 400 响应
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的ID: "+c.Param(name))
		return 0, false
	}
	return id, true
}

// readImage 从 multipart 表单中取出 image 字段，未上传时返回 nil。
// 调用方在服务层返回后调用 closeFn 关闭文件。
func readImage(c *gin.Context, field string) (*dto.ImageUpload, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, func() {}, err
	}
	img := &dto.ImageUpload{
		File:        file,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}
	return img, func() { _ = file.Close() }, nil
}
