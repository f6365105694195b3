package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/middleware"
	"github.com/Xushengqwer/community_service/models/dto"
	"github.com/Xushengqwer/community_service/models/vo"
	"github.com/Xushengqwer/community_service/response"
	"github.com/Xushengqwer/community_service/service"
)

// UserController 用户资料、偏好和屏蔽关系
type UserController struct {
	identityService service.IdentityService
	logger          *core.ZapLogger
}

func NewUserController(identityService service.IdentityService, logger *core.ZapLogger) *UserController {
	return &UserController{identityService: identityService, logger: logger}
}

// GetMe 获取当前用户资料
// @Summary      我的资料
// @Tags         users (用户)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.UserProfileResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "资料尚未创建"
// @Router       /api/v1/community/me [get]
func (ctrl *UserController) GetMe(c *gin.Context) {
	profile, err := ctrl.identityService.GetProfile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, profile, "")
}

// UpsertMe 创建或更新当前用户资料
// @Summary      更新我的资料
// @Description  身份由网关提供，这里只维护用户名和邮箱
// @Tags         users (用户)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        request body dto.UpsertProfileRequest true "资料"
// @Success      200 {object} vo.UserProfileResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "参数无效或用户名被占用"
// @Router       /api/v1/community/me [put]
func (ctrl *UserController) UpsertMe(c *gin.Context) {
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	profile, err := ctrl.identityService.UpsertProfile(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, profile, "资料已保存")
}

// UpdatePreferences 更新通知偏好
// @Summary      更新通知偏好
// @Tags         users (用户)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        request body dto.UpdatePreferencesRequest true "偏好"
// @Success      200 {object} vo.UserProfileResponseWrapper
// @Router       /api/v1/community/me/preferences [put]
func (ctrl *UserController) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	profile, err := ctrl.identityService.UpdatePreferences(c.Request.Context(), middleware.CurrentUserID(c), *req.NotifyOnReply)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, profile, "偏好已更新")
}

// UpdatePhoto 上传头像
// @Summary      上传头像
// @Tags         users (用户)
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        photo formData file true "头像图片"
// @Success      200 {object} vo.UserProfileResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "图片无效"
// @Router       /api/v1/community/me/photo [post]
func (ctrl *UserController) UpdatePhoto(c *gin.Context) {
	img, closeFn, err := readImage(c, "photo")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无法读取上传的图片: "+err.Error())
		return
	}
	defer closeFn()
	if img == nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "缺少 photo 文件")
		return
	}
	profile, err := ctrl.identityService.UpdateProfilePhoto(c.Request.Context(), middleware.CurrentUserID(c), img)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, profile, "头像已更新")
}

// ListBlocked 我屏蔽的用户
// @Summary      我屏蔽的用户
// @Tags         users (用户)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.BlockedUsersResponseWrapper
// @Router       /api/v1/community/me/blocked-users [get]
func (ctrl *UserController) ListBlocked(c *gin.Context) {
	names, err := ctrl.identityService.ListBlockedUsernames(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, vo.BlockedUsersVO{Usernames: names}, "")
}

// GetUser 按用户名查看资料
// @Summary      用户资料
// @Description  不返回邮箱
// @Tags         users (用户)
// @Produce      json
// @Param        username path string true "用户名"
// @Success      200 {object} vo.UserProfileResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "用户不存在"
// @Router       /api/v1/community/users/{username} [get]
func (ctrl *UserController) GetUser(c *gin.Context) {
	profile, err := ctrl.identityService.GetProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, profile, "")
}

// Block 屏蔽用户
// @Summary      屏蔽用户
// @Description  屏蔽后对方的帖子和消息不再出现在我的列表中
// @Tags         users (用户)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        username path string true "用户名"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已屏蔽"
// @Router       /api/v1/community/users/{username}/block [post]
func (ctrl *UserController) Block(c *gin.Context) {
	if err := ctrl.identityService.Block(c.Request.Context(), middleware.CurrentUserID(c), c.Param("username")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "已屏蔽")
}

// Unblock 取消屏蔽
// @Summary      取消屏蔽
// @Tags         users (用户)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        username path string true "用户名"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "未屏蔽"
// @Router       /api/v1/community/users/{username}/unblock [post]
func (ctrl *UserController) Unblock(c *gin.Context) {
	if err := ctrl.identityService.Unblock(c.Request.Context(), middleware.CurrentUserID(c), c.Param("username")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "已取消屏蔽")
}

func (ctrl *UserController) RegisterRoutes(group *gin.RouterGroup) {
	me := group.Group("/me", middleware.RequireUser())
	{
		me.GET("", ctrl.GetMe)
		me.PUT("", ctrl.UpsertMe)
		me.PUT("/preferences", ctrl.UpdatePreferences)
		me.POST("/photo", ctrl.UpdatePhoto)
		me.GET("/blocked-users", ctrl.ListBlocked)
	}
	users := group.Group("/users")
	{
		users.GET("/:username", ctrl.GetUser)
		users.POST("/:username/block", middleware.RequireUser(), ctrl.Block)
		users.POST("/:username/unblock", middleware.RequireUser(), ctrl.Unblock)
	}
}
