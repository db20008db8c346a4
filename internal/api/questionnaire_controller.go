package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// QuestionnaireController 问卷控制器
type QuestionnaireController struct {
	questionnaireService service.QuestionnaireService
}

// NewQuestionnaireController 创建问卷控制器
func NewQuestionnaireController(questionnaireService service.QuestionnaireService) *QuestionnaireController {
	return &QuestionnaireController{
		questionnaireService: questionnaireService,
	}
}

// Submit 提交问卷答案
// @Summary      提交问卷答案
// @Description  客户提交资格问卷答案,阶段进入待审批,自动判定开启时立即出结果
// @Tags         问卷管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body service.SubmitAnswersRequest true "答案信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/questionnaire/submit [post]
// @Security     BearerAuth
func (c *QuestionnaireController) Submit(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req service.SubmitAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	p, err := c.questionnaireService.Submit(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, p)
}

// Review 审批问卷
// @Summary      审批问卷
// @Description  平台方审批待审批的问卷阶段,驳回可终止申请或允许重新提交
// @Tags         问卷管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body service.ReviewQuestionnaireRequest true "审批信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/questionnaire/review [post]
// @Security     BearerAuth
func (c *QuestionnaireController) Review(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req service.ReviewQuestionnaireRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.questionnaireService.Review(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, &req); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}
