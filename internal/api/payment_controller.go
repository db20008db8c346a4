package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// PaymentController 支付控制器
type PaymentController struct {
	paymentService service.PaymentService
}

// NewPaymentController 创建支付控制器
func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// PaymentWebhookRequest 支付到账通知请求
// @Description 支付渠道到账通知的请求参数,payment_ref 用于幂等去重
type PaymentWebhookRequest struct {
	ApplicationID string          `json:"application_id" example:"app-001" binding:"required"` // 申请 ID
	PhaseID       string          `json:"phase_id" example:"phase-003" binding:"required"`     // 支付阶段 ID
	Amount        decimal.Decimal `json:"amount" example:"250000.00" binding:"required"`       // 到账金额
	PaymentRef    string          `json:"payment_ref" example:"txn-7f3a" binding:"required"`   // 支付流水号
}

// GenerateInstallments 生成分期计划
// @Summary      生成分期计划
// @Description  管理员为支付阶段生成分期计划,支持公式计算每期金额
// @Tags         支付管理
// @Accept       json
// @Produce      json
// @Param        id path string true "申请 ID"
// @Param        phase_id path string true "阶段 ID"
// @Param        request body service.GenerateInstallmentsRequest true "分期参数"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /applications/{id}/phases/{phase_id}/installments [post]
// @Security     BearerAuth
func (c *PaymentController) GenerateInstallments(ctx *gin.Context) {
	id := ctx.Param("id")
	phaseID := ctx.Param("phase_id")
	if !validateApplicationID(ctx, id) || !validatePhaseID(ctx, phaseID) {
		return
	}

	var req service.GenerateInstallmentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	ext, err := c.paymentService.GenerateInstallments(ctx.Request.Context(), actorFromContext(ctx), id, phaseID, &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, ext)
}

// Webhook 支付到账通知
// @Summary      支付到账通知
// @Description  接收支付渠道的到账事件,重复流水号直接确认不重复入账
// @Tags         支付管理
// @Accept       json
// @Produce      json
// @Param        request body PaymentWebhookRequest true "到账信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /payments/webhook [post]
// @Security     BearerAuth
func (c *PaymentController) Webhook(ctx *gin.Context) {
	var req PaymentWebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	err := c.paymentService.RecordPayment(ctx.Request.Context(), req.ApplicationID, req.PhaseID, req.Amount, req.PaymentRef)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, nil)
}
