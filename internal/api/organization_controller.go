package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// OrganizationController 组织绑定控制器
type OrganizationController struct {
	organizationService service.OrganizationService
}

// NewOrganizationController 创建组织绑定控制器
func NewOrganizationController(organizationService service.OrganizationService) *OrganizationController {
	return &OrganizationController{
		organizationService: organizationService,
	}
}

// Bind 绑定组织
// @Summary      绑定组织到申请
// @Description  管理员将组织以某个参与方类型绑定到申请,同类型重复绑定会被拒绝
// @Tags         组织管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        request body service.BindOrganizationRequest true "绑定信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/organizations [post]
// @Security     BearerAuth
func (c *OrganizationController) Bind(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	var req service.BindOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	binding, err := c.organizationService.Bind(ctx.Request.Context(), actorFromContext(ctx), id, &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, binding)
}

// List 查询申请的组织绑定
// @Summary      查询组织绑定列表
// @Description  返回申请上全部组织绑定及其参与方类型
// @Tags         组织管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/organizations [get]
// @Security     BearerAuth
func (c *OrganizationController) List(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	bindings, err := c.organizationService.ListBindings(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, bindings)
}
