package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/utils"
)

// PlanController 付款计划控制器
type PlanController struct {
	planService service.PlanService
}

// NewPlanController 创建付款计划控制器
func NewPlanController(planService service.PlanService) *PlanController {
	return &PlanController{
		planService: planService,
	}
}

// Create 创建付款计划
// @Summary      创建付款计划
// @Description  管理员创建付款计划,计划定义申请的阶段流水线蓝图
// @Tags         计划管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreatePlanRequest true "计划信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /plans [post]
// @Security     BearerAuth
func (c *PlanController) Create(ctx *gin.Context) {
	var req service.CreatePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := utils.ValidatePlanName(req.Name); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid plan name", err.Error())
		return
	}

	p, err := c.planService.Create(ctx.Request.Context(), actorFromContext(ctx), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, p)
}

// Get 获取付款计划
// @Summary      获取付款计划详情
// @Description  根据 ID 获取付款计划及其阶段定义
// @Tags         计划管理
// @Accept       json
// @Produce      json
// @Param        id path string true "计划 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /plans/{id} [get]
// @Security     BearerAuth
func (c *PlanController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidatePlanID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid plan ID", err.Error())
		return
	}

	p, err := c.planService.Get(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, p)
}

// List 查询付款计划列表
// @Summary      查询付款计划列表
// @Description  返回全部付款计划
// @Tags         计划管理
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /plans [get]
// @Security     BearerAuth
func (c *PlanController) List(ctx *gin.Context) {
	plans, err := c.planService.List()
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, plans)
}
