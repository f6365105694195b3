package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/middleware"
	"github.com/Xushengqwer/community_service/response"
	"github.com/Xushengqwer/community_service/service"
)

type FeedController struct {
	feedService service.FeedService
	logger      *core.ZapLogger
}

func NewFeedController(feedService service.FeedService, logger *core.ZapLogger) *FeedController {
	return &FeedController{feedService: feedService, logger: logger}
}

// HomeFeed 首页信息流
// @Summary      首页信息流
// @Description  当前用户关注的已审核社区中的最新帖子
// @Tags         feed (信息流)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.PostListResponseWrapper
// @Failure      401 {object} vo.BaseResponseWrapper "未登录"
// @Router       /api/v1/community/feed/home [get]
func (ctrl *FeedController) HomeFeed(c *gin.Context) {
	posts, err := ctrl.feedService.HomeFeed(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, posts, "")
}

// PublicFeed 公共信息流
// @Summary      公共信息流
// @Description  所有已审核社区的最新帖子，结果缓存在 Redis
// @Tags         feed (信息流)
// @Produce      json
// @Success      200 {object} vo.PostListResponseWrapper
// @Router       /api/v1/community/feed/public [get]
func (ctrl *FeedController) PublicFeed(c *gin.Context) {
	posts, err := ctrl.feedService.PublicFeed(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, posts, "")
}

func (ctrl *FeedController) RegisterRoutes(group *gin.RouterGroup) {
	feed := group.Group("/feed")
	{
		feed.GET("/home", middleware.RequireUser(), ctrl.HomeFeed)
		feed.GET("/public", ctrl.PublicFeed)
	}
}
