package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/auth"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/utils"
)

// ApplicationController 申请控制器
type ApplicationController struct {
	applicationService service.ApplicationService
	fgaClient          *auth.OpenFGAClient
}

// NewApplicationController 创建申请控制器;fgaClient 可为 nil,此时不写入授权关系
func NewApplicationController(applicationService service.ApplicationService, fgaClient *auth.OpenFGAClient) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		fgaClient:          fgaClient,
	}
}

// validateApplicationID 验证申请 ID 并返回错误响应（如果无效）
func validateApplicationID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateApplicationID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid application ID", err.Error())
		return false
	}
	return true
}

// CancelApplicationRequest 取消申请请求
// @Description 取消申请的请求参数
type CancelApplicationRequest struct {
	Reason string `json:"reason" example:"buyer withdrew"` // 取消原因
}

// Create 创建申请
// @Summary      创建按揭申请
// @Description  基于付款计划创建新的按揭申请,并按计划生成阶段流水线
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateApplicationRequest true "申请信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications [post]
// @Security     BearerAuth
func (c *ApplicationController) Create(ctx *gin.Context) {
	var req service.CreateApplicationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	detail, err := c.applicationService.Create(ctx.Request.Context(), actorFromContext(ctx), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	// 为买家写入授权关系,失败不影响创建结果
	if c.fgaClient != nil {
		if err := c.fgaClient.SetRelation(ctx.Request.Context(), detail.Application.BuyerID, "applicant", "application", detail.Application.ID); err != nil {
			GetLogger().WithError(err).WithField("application_id", detail.Application.ID).Warn("failed to grant applicant relation")
		}
	}

	Success(ctx, detail)
}

// Get 获取申请详情
// @Summary      获取申请详情
// @Description  根据 ID 获取申请及其全部阶段
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id} [get]
// @Security     BearerAuth
func (c *ApplicationController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	detail, err := c.applicationService.Get(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, detail)
}

// List 查询申请列表
// @Summary      查询申请列表
// @Description  按租户、买家、状态或计划过滤申请
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        tenant_id query string false "租户 ID"
// @Param        buyer_id query string false "买家 ID"
// @Param        status query string false "申请状态"
// @Param        plan_id query string false "付款计划 ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications [get]
// @Security     BearerAuth
func (c *ApplicationController) List(ctx *gin.Context) {
	filter := &repository.ApplicationFilter{}
	if v := ctx.Query("tenant_id"); v != "" {
		filter.TenantID = &v
	}
	if v := ctx.Query("buyer_id"); v != "" {
		filter.BuyerID = &v
	}
	if v := ctx.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := ctx.Query("plan_id"); v != "" {
		filter.PlanID = &v
	}

	page, pageSize := pageParams(ctx)
	filter.Page = page
	filter.PageSize = pageSize

	apps, total, err := c.applicationService.List(filter)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Paginated(ctx, apps, NewPaginationInfo(page, pageSize, total))
}

// Events 查询申请事件流
// @Summary      查询申请事件流
// @Description  按时间顺序返回申请的全部领域事件
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/events [get]
// @Security     BearerAuth
func (c *ApplicationController) Events(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	events, err := c.applicationService.Events(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, events)
}

// Cancel 取消申请
// @Summary      取消申请
// @Description  管理员终止申请,申请进入 CANCELLED 终态
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        request body CancelApplicationRequest true "取消信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/cancel [post]
// @Security     BearerAuth
func (c *ApplicationController) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	var req CancelApplicationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.applicationService.Cancel(ctx.Request.Context(), actorFromContext(ctx), id, req.Reason); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}
