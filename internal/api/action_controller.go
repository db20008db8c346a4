package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// ActionController 当前动作控制器
type ActionController struct {
	actionService       service.ActionService
	organizationService service.OrganizationService
}

// NewActionController 创建当前动作控制器
func NewActionController(actionService service.ActionService, organizationService service.OrganizationService) *ActionController {
	return &ActionController{
		actionService:       actionService,
		organizationService: organizationService,
	}
}

// resolveCallerParty 解析调用者在申请上代表的参与方类型
// 优先使用组织绑定关系,其次回退到令牌中的 org_types 声明,管理员默认平台方
func (c *ActionController) resolveCallerParty(applicationID string, actor service.Actor) phase.OrgType {
	party, err := c.organizationService.ResolvePartyType(applicationID, actor.UserID)
	if err == nil {
		return party
	}

	var forbiddenErr *phase.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		if actor.PartyType != "" {
			return actor.PartyType
		}
		if actor.IsAdmin {
			return phase.OrgTypePlatform
		}
	}
	return ""
}

// CurrentAction 查询当前动作
// @Summary      查询当前动作
// @Description  返回每个参与方在申请当前阶段应执行的动作,并标注调用者自己的动作
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/current-action [get]
// @Security     BearerAuth
func (c *ActionController) CurrentAction(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	actor := actorFromContext(ctx)
	callerParty := c.resolveCallerParty(id, actor)

	view, err := c.actionService.Resolve(id, callerParty)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, view)
}
