package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/response"
	"github.com/Xushengqwer/community_service/service"
)

// ModerationController 处理通知邮件中的一键审核链接
type ModerationController struct {
	moderationService service.ModerationService
	logger            *core.ZapLogger
}

func NewModerationController(moderationService service.ModerationService, logger *core.ZapLogger) *ModerationController {
	return &ModerationController{moderationService: moderationService, logger: logger}
}

// ExecuteAction 执行一键审核操作
// @Summary      执行审核操作
// @Description  令牌为签名的一次性 JWT，包含操作 (ban_post/unban_post/approve_community) 和目标 slug。令牌不要求登录，使用后即失效
// @Tags         moderation (审核)
// @Produce      json
// @Param        token query string true "审核令牌"
// @Success      200 {object} vo.ModerationResultResponseWrapper
// @Failure      400 {object} vo.BaseResponseWrapper "令牌无效、过期或已使用"
// @Failure      404 {object} vo.BaseResponseWrapper "目标不存在"
// @Router       /api/v1/community/moderation/actions [get]
func (ctrl *ModerationController) ExecuteAction(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidToken, "缺少 token 参数")
		return
	}
	result, err := ctrl.moderationService.ExecuteAction(c.Request.Context(), token)
	if err != nil {
		response.RespondServiceError(c, ctrl.logger, err)
		return
	}
	response.RespondSuccess(c, result, "操作已执行")
}

func (ctrl *ModerationController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/moderation/actions", ctrl.ExecuteAction)
}
