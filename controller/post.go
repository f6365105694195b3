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

// PostController 帖子相关接口，包含帖子投票、隐藏、举报以及帖子下的讨论
type PostController struct {
	postService       service.PostService
	voteService       service.VoteService
	threadService     service.ThreadService
	moderationService service.ModerationService
	logger            *core.ZapLogger
}

func NewPostController(
	postService service.PostService,
	voteService service.VoteService,
	threadService service.ThreadService,
	moderationService service.ModerationService,
	logger *core.ZapLogger,
) *PostController {
	return &PostController{
		postService:       postService,
		voteService:       voteService,
		threadService:     threadService,
		moderationService: moderationService,
		logger:            logger,
	}
}

// CreatePost 发布帖子
// @Summary      发布帖子
// @Description  以 multipart/form-data 提交，image 字段可选。社区必须已通过审核
// @Tags         posts (帖子)
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        community_id formData int true "社区ID"
// @Param        title formData string true "标题"
// @Param        content formData string true "正文"
// @Param        image formData file false "配图 (jpeg/png/heic/heif)"
// @Success      201 {object} vo.PostResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "参数无效或内容为空"
// @Failure      404 {object} vo.BaseResponseWrapper "社区不存在"
// @Failure      422 {object} vo.BaseResponseWrapper "社区未通过审核"
// @Router       /api/v1/community/posts [post]
func (ctrl *PostController) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	img, closeFn, err := readImage(c, "image")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无法读取上传的图片: "+err.Error())
		return
	}
	defer closeFn()

	post, err := ctrl.postService.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), &req, img)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, post, "帖子发布成功")
}

// GetPost 帖子详情
// @Summary      帖子详情
// @Description  只返回正常状态的帖子，附带当前用户的投票
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string false "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.PostDetailResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Router       /api/v1/community/posts/{slug} [get]
func (ctrl *PostController) GetPost(c *gin.Context) {
	detail, err := ctrl.postService.GetPostDetail(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, detail, "帖子详情获取成功")
}

// EditPost 编辑帖子
// @Summary      编辑帖子
// @Description  仅作者可编辑，slug 保持不变，可同时替换配图
// @Tags         posts (帖子)
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Param        title formData string true "标题"
// @Param        content formData string true "正文"
// @Param        image formData file false "新配图"
// @Success      200 {object} vo.PostResponseWrapper
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Router       /api/v1/community/posts/{slug} [put]
func (ctrl *PostController) EditPost(c *gin.Context) {
	var req dto.EditPostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	img, closeFn, err := readImage(c, "image")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无法读取上传的图片: "+err.Error())
		return
	}
	defer closeFn()

	post, err := ctrl.postService.EditPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"), &req, img)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, post, "帖子已更新")
}

// DeletePost 删除帖子
// @Summary      删除帖子
// @Description  仅作者可删除，级联删除讨论链、消息、投票、隐藏记录和举报
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      403 {object} vo.BaseResponseWrapper "不是作者"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Router       /api/v1/community/posts/{slug} [delete]
func (ctrl *PostController) DeletePost(c *gin.Context) {
	if err := ctrl.postService.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "帖子已删除")
}

// UpvotePost 帖子点赞
// @Summary      帖子点赞
// @Description  已点踩时切换为点赞，计数变化 +2
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已点赞"
// @Router       /api/v1/community/posts/{slug}/upvote [post]
func (ctrl *PostController) UpvotePost(c *gin.Context) {
	result, err := ctrl.voteService.UpvotePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "")
}

// DownvotePost 帖子点踩
// @Summary      帖子点踩
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已点踩"
// @Router       /api/v1/community/posts/{slug}/downvote [post]
func (ctrl *PostController) DownvotePost(c *gin.Context) {
	result, err := ctrl.voteService.DownvotePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "")
}

// RemovePostVote 撤销帖子投票
// @Summary      撤销帖子投票
// @Description  路径参数为帖子ID
// @Tags         votes (投票)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        id path int true "帖子ID"
// @Success      200 {object} vo.VoteResultResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "尚未投票"
// @Router       /api/v1/community/posts/{id}/vote [delete]
func (ctrl *PostController) RemovePostVote(c *gin.Context) {
	// gin 要求同一层级的通配符同名，这里的 :slug 段实际是帖子ID
	postID, ok := parseIDParam(c, "slug")
	if !ok {
		return
	}
	result, err := ctrl.voteService.RemovePostVote(c.Request.Context(), middleware.CurrentUserID(c), postID)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "投票已撤销")
}

// HidePost 隐藏帖子
// @Summary      隐藏帖子
// @Description  仅对当前用户隐藏，帖子的 hidden_count 加一
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已隐藏"
// @Router       /api/v1/community/posts/{slug}/hide [post]
func (ctrl *PostController) HidePost(c *gin.Context) {
	if err := ctrl.postService.HidePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "帖子已隐藏")
}

// ShowPost 取消隐藏帖子
// @Summary      取消隐藏帖子
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "未隐藏"
// @Router       /api/v1/community/posts/{slug}/show [post]
func (ctrl *PostController) ShowPost(c *gin.Context) {
	if err := ctrl.postService.ShowPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "帖子已恢复显示")
}

// ReportPost 举报帖子
// @Summary      举报帖子
// @Description  记录举报并通知版主，通知中带有一次性的封禁/解封链接
// @Tags         moderation (审核)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.BaseResponseWrapper
// @Failure      409 {object} vo.BaseResponseWrapper "已举报"
// @Router       /api/v1/community/posts/{slug}/report [post]
func (ctrl *PostController) ReportPost(c *gin.Context) {
	if err := ctrl.moderationService.ReportPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug")); err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess[any](c, nil, "举报已提交")
}

// RespondToPost 回应帖子
// @Summary      回应帖子
// @Description  每次回应都会开启一条新的讨论链，帖子的第一条链成为主链
// @Tags         messages (讨论)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Param        request body dto.RespondRequest true "回应内容"
// @Success      201 {object} vo.RespondResultResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "内容为空或过长"
// @Router       /api/v1/community/posts/{slug}/respond [post]
func (ctrl *PostController) RespondToPost(c *gin.Context) {
	var req dto.RespondRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	result, err := ctrl.threadService.RespondToPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"), req.Content)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, result, "回应成功")
}

// RespondToChain 在已有讨论链上回应
// @Summary      回应讨论链
// @Tags         messages (讨论)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Param        chainID path int true "讨论链ID"
// @Param        request body dto.RespondRequest true "回应内容"
// @Success      201 {object} vo.MessageResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "讨论链不属于该帖子"
// @Router       /api/v1/community/posts/{slug}/chains/{chainID}/respond [post]
func (ctrl *PostController) RespondToChain(c *gin.Context) {
	chainID, ok := parseIDParam(c, "chainID")
	if !ok {
		return
	}
	var req dto.RespondRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	msg, err := ctrl.threadService.RespondToChain(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"), chainID, req.Content)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, msg, "回应成功")
}

// ListMessages 按讨论链分组获取帖子下的消息
// @Summary      帖子讨论列表
// @Description  过滤掉当前用户屏蔽的作者和隐藏的消息，过滤后为空的链不返回
// @Tags         messages (讨论)
// @Produce      json
// @Param        X-User-ID header string false "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Success      200 {object} vo.PostMessagesResponseWrapper
// @Failure      404 {object} vo.BaseResponseWrapper "帖子不存在"
// @Router       /api/v1/community/posts/{slug}/messages [get]
func (ctrl *PostController) ListMessages(c *gin.Context) {
	result, err := ctrl.threadService.ListMessagesGroupedByChain(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "")
}

// ReplyToMessage 回复某条消息
// @Summary      回复消息
// @Description  parent_message_id 必填，新消息加入父消息所在的讨论链
// @Tags         messages (讨论)
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Param        slug path string true "帖子 slug"
// @Param        request body dto.ReplyToMessageRequest true "回复内容"
// @Success      201 {object} vo.MessageResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "缺少父消息"
// @Router       /api/v1/community/posts/{slug}/messages [post]
func (ctrl *PostController) ReplyToMessage(c *gin.Context) {
	var req dto.ReplyToMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求参数: "+err.Error())
		return
	}
	msg, err := ctrl.threadService.CreateReplyToMessage(c.Request.Context(), middleware.CurrentUserID(c), c.Param("slug"), req.ParentMessageID, req.Content)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondCreated(c, msg, "回复成功")
}

// ListHiddenPosts 当前用户隐藏的帖子
// @Summary      我隐藏的帖子
// @Tags         posts (帖子)
// @Produce      json
// @Param        X-User-ID header string true "网关透传的用户ID"
// @Success      200 {object} vo.HiddenPostsResponseWrapper
// @Router       /api/v1/community/me/hidden-posts [get]
func (ctrl *PostController) ListHiddenPosts(c *gin.Context) {
	slugs, err := ctrl.postService.ListHiddenPostSlugs(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, vo.HiddenPostsVO{Slugs: slugs}, "")
}

// RegisterRoutes 注册帖子相关路由
func (ctrl *PostController) RegisterRoutes(group *gin.RouterGroup) {
	posts := group.Group("/posts")
	{
		posts.GET("/:slug", ctrl.GetPost)
		posts.GET("/:slug/messages", ctrl.ListMessages)

		authed := posts.Group("", middleware.RequireUser())
		authed.POST("", ctrl.CreatePost)
		authed.PUT("/:slug", ctrl.EditPost)
		authed.DELETE("/:slug", ctrl.DeletePost)
		authed.POST("/:slug/upvote", ctrl.UpvotePost)
		authed.POST("/:slug/downvote", ctrl.DownvotePost)
		authed.DELETE("/:slug/vote", ctrl.RemovePostVote)
		authed.POST("/:slug/hide", ctrl.HidePost)
		authed.POST("/:slug/show", ctrl.ShowPost)
		authed.POST("/:slug/report", ctrl.ReportPost)
		authed.POST("/:slug/respond", ctrl.RespondToPost)
		authed.POST("/:slug/chains/:chainID/respond", ctrl.RespondToChain)
		authed.POST("/:slug/messages", ctrl.ReplyToMessage)
	}
	group.GET("/me/hidden-posts", middleware.RequireUser(), ctrl.ListHiddenPosts)
}
