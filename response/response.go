package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/myErrors"
)

// APIResponse 统一响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// 业务错误码
const (
	ErrCodeSuccess = 0

	ErrCodeClientInvalidInput     = 40001
	ErrCodeClientEmptyContent     = 40002
	ErrCodeClientMissingParent    = 40003
	ErrCodeClientInvalidToken     = 40004
	ErrCodeClientUnauthorized     = 40101
	ErrCodeClientForbidden        = 40301
	ErrCodeClientResourceNotFound = 40401
	ErrCodeClientConflict         = 40901
	ErrCodeClientStateMismatch    = 40902
	ErrCodeClientNotApproved      = 40903
	ErrCodeClientTooManyRequests  = 42901
	ErrCodeServerInternal         = 50001
	ErrCodeServerTimeout          = 50401
)

// RespondSuccess 返回 200 和数据
func RespondSuccess[T any](c *gin.Context, data T, message string) {
	c.JSON(http.StatusOK, APIResponse[T]{Code: ErrCodeSuccess, Message: message, Data: data})
}

// RespondCreated 返回 201 和数据
func RespondCreated[T any](c *gin.Context, data T, message string) {
	c.JSON(http.StatusCreated, APIResponse[T]{Code: ErrCodeSuccess, Message: message, Data: data})
}

// RespondError 返回错误响应，Data 为空
func RespondError(c *gin.Context, httpStatus int, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse[any]{Code: code, Message: message})
}

type errorMapping struct {
	status int
	code   int
}

var kindMappings = map[myErrors.Kind]errorMapping{
	myErrors.KindNotFound:             {http.StatusNotFound, ErrCodeClientResourceNotFound},
	myErrors.KindForbidden:            {http.StatusForbidden, ErrCodeClientForbidden},
	myErrors.KindUnauthorized:         {http.StatusUnauthorized, ErrCodeClientUnauthorized},
	myErrors.KindEmptyContent:         {http.StatusBadRequest, ErrCodeClientEmptyContent},
	myErrors.KindInvalidInput:         {http.StatusBadRequest, ErrCodeClientInvalidInput},
	myErrors.KindMissingParent:        {http.StatusBadRequest, ErrCodeClientMissingParent},
	myErrors.KindInvalidActionToken:   {http.StatusBadRequest, ErrCodeClientInvalidToken},
	myErrors.KindAlreadyVoted:         {http.StatusConflict, ErrCodeClientConflict},
	myErrors.KindAlreadyFollowing:     {http.StatusConflict, ErrCodeClientConflict},
	myErrors.KindAlreadyBlocked:       {http.StatusConflict, ErrCodeClientConflict},
	myErrors.KindAlreadyReported:      {http.StatusConflict, ErrCodeClientConflict},
	myErrors.KindAlreadyHidden:        {http.StatusConflict, ErrCodeClientConflict},
	myErrors.KindNoExistingVote:       {http.StatusConflict, ErrCodeClientStateMismatch},
	myErrors.KindNotFollowing:         {http.StatusConflict, ErrCodeClientStateMismatch},
	myErrors.KindNotBlocked:           {http.StatusConflict, ErrCodeClientStateMismatch},
	myErrors.KindNotHidden:            {http.StatusConflict, ErrCodeClientStateMismatch},
	myErrors.KindCommunityNotApproved: {http.StatusUnprocessableEntity, ErrCodeClientNotApproved},
}

// RespondServiceError 把服务层错误转换为响应。
// 业务错误返回其类别和消息；其余错误记录日志后只返回通用的内部错误。
func RespondServiceError(c *gin.Context, logger *core.ZapLogger, err error) {
	kind := myErrors.KindOf(err)
	if m, ok := kindMappings[kind]; ok {
		c.AbortWithStatusJSON(m.status, APIResponse[any]{Code: m.code, Kind: string(kind), Message: myErrors.MessageOf(err)})
		return
	}

	if logger != nil {
		logger.Error("请求处理失败", zap.Error(err), zap.String("path", c.FullPath()))
	}
	if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, APIResponse[any]{Code: ErrCodeServerTimeout, Kind: string(myErrors.KindInternal), Message: "请求超时"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse[any]{Code: ErrCodeServerInternal, Kind: string(myErrors.KindInternal), Message: "服务器内部错误"})
}
