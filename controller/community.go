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

// CommunityController 社区相关接口
type CommunityController struct {
	communityService service.CommunityService
	identityService  service.IdentityService
	logger           *core.ZapLogger
}

func NewCommunityController(communityService service.CommunityService, identityService service.IdentityService, logger *core.ZapLogger) *CommunityController {
	return &CommunityController{communityService: communityService, identityService: identityService, logger: logger}
}

// ListCommunities 获取社区列表
// @Summary      获取社区列表
// @Description  返回已审核的社区，以及当前用户担任版主的待审核社区
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string false "网关透传的用户ID"
// @Success      200 {object} vo.CommunityListResponseWrapper
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/community/communities [get]
func (ctrl *CommunityController) ListCommunities(c *gin.Context) {
	list, err := ctrl.communityService.ListCommunities(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, list, "社区列表获取成功")
}

// CreateCommunity 创建社区
// @Summary      创建社区
// @Description  创建者成为版主，社区初始为待审核状态，审核通过前不能发帖
// @Tags         communities (社区)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        request body dto.CreateCommunityRequest true "社区信息"
// @Success      201 {object} vo.CommunityResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "参数无效或标题为空"
// @Failure      401 {object} vo.BaseResponseWrapper "未登录"
// @Router       /api/v1/community/communities [post]
func (ctrl *CommunityController) CreateCommunity(c *gin.Context) {
	var req dto.CreateCommunityRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	community, err := ctrl.communityService.CreateCommunity(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, community, "社区已创建，等待审核")
}

// ListFollowed 获取当前用户关注的社区
// @Summary      我关注的社区
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.CommunityListResponseWrapper
// @Failure      401 {object} vo.BaseResponseWrapper "未登录"
// @Router       /api/v1/community/communities/followed [get]
func (ctrl *CommunityController) ListFollowed(c *gin.Context) {
	list, err := ctrl.identityService.ListFollowedCommunities(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, list, "关注列表获取成功")
}

// GetCommunity 社区详情
// @Summary      社区详情
// @Description  返回社区信息和对当前用户可见的最新帖子 (最多 50 条)
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string false "网关透传的用户ID"
// @Param        slug path string true "社区 slug"
// @Success      200 {object} vo.CommunityDetailResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "社区不存在"
// @Router       /api/v1/community/communities/{slug} [get]
func (ctrl *CommunityController) GetCommunity(c *gin.Context) {
	detail, err := ctrl.communityService.GetCommunityDetail(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, detail, "社区详情获取成功")
}

// Follow 关注社区
// @Summary      关注社区
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "社区 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "社区不存在"
// @Failure      409 {object} vo.BaseResponseWrapper "已关注"
// @Router       /api/v1/community/communities/{slug}/follow [post]
func (ctrl *CommunityController) Follow(c *gin.Context) {
	if err := ctrl.identityService.Follow(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "关注成功")
}

// Unfollow 取消关注社区
// @Summary      取消关注社区
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "社区 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "未关注"
// @Router       /api/v1/community/communities/{slug}/unfollow [post]
func (ctrl *CommunityController) Unfollow(c *gin.Context) {
	if err := ctrl.identityService.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "已取消关注")
}

// FollowStatus 查询是否已关注
// @Summary      关注状态
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string false "网关透传的用户ID"
// @Param        slug path string true "社区 slug"
// @Success      200 {object} vo.FollowStatusResponseWrapper
// @Router       /api/v1/community/communities/{slug}/follow-status [get]
func (ctrl *CommunityController) FollowStatus(c *gin.Context) {
	following, err := ctrl.identityService.FollowStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, vo.FollowStatusVO{IsFollowing: following}, "")
}

// RequestApproval 版主申请社区审核
// @Summary      申请社区审核
// @Description  向管理员发送带一次性审核链接的通知
// @Tags         communities (社区)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "社区 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      403 {object} vo.BaseResponseWrapper "不是版主"
// @Router       /api/v1/community/communities/{slug}/approval-request [post]
func (ctrl *CommunityController) RequestApproval(c *gin.Context) {
	if err := ctrl.communityService.RequestApproval(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "审核申请已发送")
}

// RegisterRoutes 注册社区相关路由
func (ctrl *CommunityController) RegisterRoutes(group *gin.RouterGroup) {
	communities := group.Group("/communities")
	{
		communities.GET("", ctrl.ListCommunities)
		communities.GET("/:slug", ctrl.GetCommunity)
		communities.GET("/:slug/follow-status", ctrl.FollowStatus)

		authed := communities.Group("", middleware.RequireUser())
		authed.POST("", ctrl.CreateCommunity)
		authed.GET("/followed", ctrl.ListFollowed)
		authed.POST("/:slug/follow", ctrl.Follow)
		authed.POST("/:slug/unfollow", ctrl.Unfollow)
		authed.POST("/:slug/approval-request", ctrl.RequestApproval)
	}
}
