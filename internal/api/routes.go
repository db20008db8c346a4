package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/auth"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/websocket"
)

// RouterDeps 路由依赖
// 可选依赖为 nil 时对应的路由不会注册
type RouterDeps struct {
	DB        *gorm.DB
	Hub       *websocket.Hub
	Validator *auth.KeycloakTokenValidator
	FGAClient *auth.OpenFGAClient

	ApplicationService   service.ApplicationService
	PhaseService         service.PhaseService
	DocumentService      service.DocumentService
	QuestionnaireService service.QuestionnaireService
	GateService          service.GateService
	PaymentService       service.PaymentService
	OrganizationService  service.OrganizationService
	ActionService        service.ActionService
	PlanService          service.PlanService

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	router := gin.Default()

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(VersionMiddleware())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(deps.AllowedOrigins))
	}
	if deps.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(deps.RateLimitRPS, deps.RateLimitBurst))
	}

	// 健康检查
	healthController := NewHealthController(deps.DB, deps.FGAClient)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由
	if deps.Hub != nil && deps.Validator != nil {
		router.GET("/ws/applications", websocket.Handler(deps.Hub, deps.Validator))
	}

	applicationController := NewApplicationController(deps.ApplicationService, deps.FGAClient)
	phaseController := NewPhaseController(deps.PhaseService)
	documentController := NewDocumentController(deps.DocumentService)
	questionnaireController := NewQuestionnaireController(deps.QuestionnaireService)
	gateController := NewGateController(deps.GateService)
	paymentController := NewPaymentController(deps.PaymentService)
	organizationController := NewOrganizationController(deps.OrganizationService)
	actionController := NewActionController(deps.ActionService, deps.OrganizationService)
	planController := NewPlanController(deps.PlanService)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	if deps.Validator != nil {
		v1.Use(auth.KeycloakAuthMiddleware(deps.Validator))
	}
	if deps.DB != nil {
		v1.Use(IdempotencyMiddleware(deps.DB))
	}
	{
		// 付款计划路由
		plans := v1.Group("/plans")
		{
			plans.POST("", planController.Create)
			plans.GET("", planController.List)
			plans.GET("/:id", planController.Get)
		}

		// 申请管理路由
		applications := v1.Group("/applications")
		// 配置了 OpenFGA 时,申请详情读取走细粒度授权
		viewGuarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
			if deps.FGAClient == nil {
				return []gin.HandlerFunc{h}
			}
			return []gin.HandlerFunc{auth.RequireRelation(deps.FGAClient, "application", "viewer"), h}
		}
		{
			applications.POST("", applicationController.Create)
			applications.GET("", applicationController.List)
			applications.GET("/:id", viewGuarded(applicationController.Get)...)
			applications.GET("/:id/events", viewGuarded(applicationController.Events)...)
			applications.POST("/:id/cancel", applicationController.Cancel)
			applications.GET("/:id/current-action", actionController.CurrentAction)

			// 组织绑定路由
			applications.POST("/:id/organizations", organizationController.Bind)
			applications.GET("/:id/organizations", organizationController.List)

			// 阶段管理路由
			applications.GET("/:id/phases", phaseController.List)
			applications.GET("/:id/phases/:phase_id", phaseController.Get)
			applications.POST("/:id/phases/:phase_id/activate", phaseController.Activate)
			applications.POST("/:id/phases/:phase_id/skip", phaseController.Skip)
			applications.POST("/:id/phases/:phase_id/reopen", phaseController.Reopen)

			// 问卷阶段路由
			applications.POST("/:id/phases/:phase_id/questionnaire/submit", questionnaireController.Submit)
			applications.POST("/:id/phases/:phase_id/questionnaire/review", questionnaireController.Review)

			// 文档阶段路由
			applications.POST("/:id/phases/:phase_id/documents", documentController.Upload)
			applications.GET("/:id/documents", documentController.List)
			applications.POST("/:id/documents/:document_id/review", documentController.Review)
			applications.POST("/:id/documents/:document_id/revert", documentController.Revert)
			applications.GET("/:id/documents/:document_id/history", documentController.History)

			// 审批门阶段路由
			applications.POST("/:id/phases/:phase_id/steps/:step_id/action", gateController.PerformAction)

			// 支付阶段路由
			applications.POST("/:id/phases/:phase_id/installments", paymentController.GenerateInstallments)
		}

		// 支付到账通知路由
		v1.POST("/payments/webhook", paymentController.Webhook)
	}

	return router
}
