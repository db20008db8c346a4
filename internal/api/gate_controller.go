package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// GateController 审批门控制器
type GateController struct {
	gateService service.GateService
}

// NewGateController 创建审批门控制器
func NewGateController(gateService service.GateService) *GateController {
	return &GateController{
		gateService: gateService,
	}
}

// PerformAction 执行审批门动作
// @Summary      执行审批门步骤动作
// @Description  参与方对审批门步骤执行动作,全部步骤完成后阶段自动完结,驳回则挂起阶段
// @Tags         审批门管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        step_id path string true "步骤 ID"
// @Param        request body service.GateActionRequest true "动作信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/steps/{step_id}/action [post]
// @Security     BearerAuth
func (c *GateController) PerformAction(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	stepID := ctx.Param("step_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}
	if stepID == "" {
		Error(ctx, http.StatusBadRequest, "invalid step ID", "step ID cannot be empty")
		return
	}

	var req service.GateActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.gateService.PerformAction(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, stepID, &req); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}
