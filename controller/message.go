package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/middleware"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/response"
	"github.com/Xushengqwer/community_service/service"
)

// MessageController 消息相关接口
type MessageController struct {
	threadService service.ThreadService
	voteService   service.VoteService
	logger        *core.ZapLogger
}

func NewMessageController(threadService service.ThreadService, voteService service.VoteService, logger *core.ZapLogger) *MessageController {
	return &MessageController{threadService: threadService, voteService: voteService, logger: logger}
}

// CreateMessage 通用的发消息入口
// @Summary      发送消息
// @Description  带 parent_message_id 时加入父消息所在的链，否则加入帖子主链 (不存在时创建)
// @Tags         messages (讨论)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        request body dto.CreateMessageRequest true "消息内容"
// @Success      201 {object} vo.MessageResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "内容为空或过长"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子或父消息不存在"
// @Router       /api/v1/community/messages [post]
func (ctrl *MessageController) CreateMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	msg, err := ctrl.threadService.CreateMessage(c.Request.Context(), middleware.CurrentUserID(c), req.PostSlug, req.ParentMessageID, req.Content)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, msg, "消息发送成功")
}

// EditMessage 编辑消息
// @Summary      编辑消息
// @Tags         messages (讨论)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Param        request body dto.EditMessageRequest true "新内容"
// @Success      200 {object} vo.MessageResponseWrapper
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Router       /api/v1/community/messages/{id} [patch]
func (ctrl *MessageController) EditMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.EditMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	msg, err := ctrl.threadService.EditMessage(c.Request.Context(), middleware.CurrentUserID(c), id, req.Content)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, msg, "消息已更新")
}

// DeleteMessage 删除消息
// @Summary      删除消息
// @Description  连同所有子孙回复以及以它们为父的讨论链一并删除
// @Tags         messages (讨论)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Router       /api/v1/community/messages/{id} [delete]
func (ctrl *MessageController) DeleteMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.threadService.DeleteMessage(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "消息已删除")
}

// UpvoteMessage 消息点赞
// @Summary      消息点赞
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已点赞"
// @Router       /api/v1/community/messages/{id}/upvote [post]
func (ctrl *MessageController) UpvoteMessage(c *gin.Context) {
	ctrl.vote(c, ctrl.voteService.UpvoteMessage)
}

// DownvoteMessage 消息点踩
// @Summary      消息点踩
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已点踩"
// @Router       /api/v1/community/messages/{id}/downvote [post]
func (ctrl *MessageController) DownvoteMessage(c *gin.Context) {
	ctrl.vote(c, ctrl.voteService.DownvoteMessage)
}

// RemoveMessageVote 撤销消息投票
// @Summary      撤销消息投票
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "尚未投票"
// @Router       /api/v1/community/messages/{id}/vote [delete]
func (ctrl *MessageController) RemoveMessageVote(c *gin.Context) {
	ctrl.vote(c, ctrl.voteService.RemoveMessageVote)
}

func (ctrl *MessageController) vote(c *gin.Context, op func(ctx context.Context, userID string, messageID uint64) (*vo.VoteResultVO, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := op(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "")
}

// HideMessage 隐藏消息
// @Summary      隐藏消息
// @Tags         messages (讨论)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.BaseResponseWrapper
// @Router       /api/v1/community/messages/{id}/hide [post]
func (ctrl *MessageController) HideMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.threadService.HideMessage(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "消息已隐藏")
}

// UnhideMessage 取消隐藏消息
// @Summary      取消隐藏消息
// @Tags         messages (讨论)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "消息ID"
// @Success      200 {object} vo.BaseResponseWrapper
// @Router       /api/v1/community/messages/{id}/unhide [post]
func (ctrl *MessageController) UnhideMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.threadService.UnhideMessage(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "消息已恢复显示")
}

// RecentMessages 关注社区中的最新消息
// @Summary      最新消息
// @Tags         messages (讨论)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.MessageListResponseWrapper
// @Router       /api/v1/community/messages/recent [get]
func (ctrl *MessageController) RecentMessages(c *gin.Context) {
	list, err := ctrl.threadService.RecentMessages(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, list, "")
}

// RegisterRoutes 注册消息相关路由，全部需要登录
func (ctrl *MessageController) RegisterRoutes(group *gin.RouterGroup) {
	messages := group.Group("/messages", middleware.RequireUser())
	{
		messages.POST("", ctrl.CreateMessage)
		messages.GET("/recent", ctrl.RecentMessages)
		messages.PATCH("/:id", ctrl.EditMessage)
		messages.DELETE("/:id", ctrl.DeleteMessage)
		messages.POST("/:id/upvote", ctrl.UpvoteMessage)
		messages.POST("/:id/downvote", ctrl.DownvoteMessage)
		messages.DELETE("/:id/vote", ctrl.RemoveMessageVote)
		messages.POST("/:id/hide", ctrl.HideMessage)
		messages.POST("/:id/unhide", ctrl.UnhideMessage)
	}
}
