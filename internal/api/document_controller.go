package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/utils"
)

// DocumentController 文档控制器
type DocumentController struct {
	documentService service.DocumentService
}

// NewDocumentController 创建文档控制器
func NewDocumentController(documentService service.DocumentService) *DocumentController {
	return &DocumentController{
		documentService: documentService,
	}
}

// validateDocumentID 验证文档 ID 并返回错误响应（如果无效）
func validateDocumentID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateDocumentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid document ID", err.Error())
		return false
	}
	return true
}

// Upload 上传文档
// @Summary      上传阶段文档
// @Description  向进行中的文档阶段上传文档,重复上传会重置审核状态
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body service.UploadDocumentRequest true "文档信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/documents [post]
// @Security     BearerAuth
func (c *DocumentController) Upload(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req service.UploadDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	doc, err := c.documentService.Upload(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// Review 审核文档
// @Summary      审核文档
// @Description  当前审核方批准或驳回文档,驳回可触发阶段级联回退
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        document_id path string true "文档 ID"
// @Param        request body service.ReviewDocumentRequest true "审核信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/documents/{document_id}/review [post]
// @Security     BearerAuth
func (c *DocumentController) Review(ctx *gin.Context) {
	id := ctx.Param("id")
	documentID := ctx.Param("document_id")
	if !validateApplicationID(ctx, id) || !validateDocumentID(ctx, documentID) {
		return
	}

	var req service.ReviewDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.documentService.Review(ctx.Request.Context(), actorFromContext(ctx), id, documentID, &req); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Revert 撤销文档批准
// @Summary      撤销文档批准
// @Description  管理员撤销已批准文档,必要时重开已完成的阶段
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        document_id path string true "文档 ID"
// @Param        request body service.RevertDocumentRequest true "撤销信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/documents/{document_id}/revert [post]
// @Security     BearerAuth
func (c *DocumentController) Revert(ctx *gin.Context) {
	id := ctx.Param("id")
	documentID := ctx.Param("document_id")
	if !validateApplicationID(ctx, id) || !validateDocumentID(ctx, documentID) {
		return
	}

	var req service.RevertDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.documentService.Revert(ctx.Request.Context(), actorFromContext(ctx), id, documentID, &req); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// List 查询申请的文档列表
// @Summary      查询文档列表
// @Description  返回申请下全部阶段的文档
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/documents [get]
// @Security     BearerAuth
func (c *DocumentController) List(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateApplicationID(ctx, id) {
		return
	}

	docs, err := c.documentService.ListByApplication(id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, docs)
}

// History 查询文档审核轨迹
// @Summary      查询文档审核轨迹
// @Description  按时间顺序返回文档的完整审核轨迹
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        document_id path string true "文档 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/documents/{document_id}/history [get]
// @Security     BearerAuth
func (c *DocumentController) History(ctx *gin.Context) {
	id := ctx.Param("id")
	documentID := ctx.Param("document_id")
	if !validateApplicationID(ctx, id) || !validateDocumentID(ctx, documentID) {
		return
	}

	entries, err := c.documentService.History(documentID)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, entries)
}
