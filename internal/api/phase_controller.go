package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/utils"
)

// PhaseController 阶段控制器
type PhaseController struct {
	phaseService service.PhaseService
}

// NewPhaseController 创建阶段控制器
func NewPhaseController(phaseService service.PhaseService) *PhaseController {
	return &PhaseController{
		phaseService: phaseService,
	}
}

// validatePhaseID 验证阶段 ID 并返回错误响应（如果无效）
func validatePhaseID(ctx *gin.Context, id string) bool {
	if err := utils.ValidatePhaseID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid phase ID", err.Error())
		return false
	}
	return true
}

// SkipPhaseRequest 跳过阶段请求
// @Description 跳过阶段的请求参数
type SkipPhaseRequest struct {
	Reason string `json:"reason" example:"waived by underwriter" binding:"required"` // 跳过原因
}

// Get 获取阶段详情
// @Summary      获取阶段详情
// @Description  根据 ID 获取阶段及其分类扩展数据
// @Tags         阶段管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id} [get]
// @Security     BearerAuth
func (c *PhaseController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	p, err := c.phaseService.Get(id, phaseID)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, p)
}

// List 查询申请的阶段列表
// @Summary      查询阶段列表
// @Description  按顺序返回申请的全部阶段
// @Tags         阶段管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases [get]
// @Security     BearerAuth
func (c *PhaseController) List(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	phases, err := c.phaseService.ListByApplication(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, phases)
}

// Activate 激活阶段
// @Summary      激活阶段
// @Description  手动激活处于 PENDING 状态的阶段
// @Tags         阶段管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/activate [post]
// @Security     BearerAuth
func (c *PhaseController) Activate(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	if err := c.phaseService.Activate(ctx.Request.Context(), actorFromContext(ctx), id, phaseID); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Skip 跳过阶段
// @Summary      跳过阶段
// @Description  管理员跳过阶段,阶段进入 SKIPPED 终态并触发级联激活
// @Tags         阶段管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body SkipPhaseRequest true "跳过信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/skip [post]
// @Security     BearerAuth
func (c *PhaseController) Skip(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req SkipPhaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.phaseService.Skip(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, req.Reason); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Reopen 重开阶段
// @Summary      重开已完成阶段
// @Description  管理员将已完成阶段重置为进行中,后续阶段默认级联重置为待激活
// @Tags         阶段管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body service.ReopenRequest true "重开信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/reopen [post]
// @Security     BearerAuth
func (c *PhaseController) Reopen(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req service.ReopenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.phaseService.Reopen(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, &req); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}
