package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/api"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/auth"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/config"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/database"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/websocket"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、事件分发器、服务和外部客户端
type Container struct {
	db                *gorm.DB
	logger            *logrus.Logger
	hub               *websocket.Hub
	dispatcher        *integration.Dispatcher
	paymentConsumer   *integration.PaymentConsumer
	collector         *metrics.Collector
	fgaClient         *auth.OpenFGAClient
	keycloakValidator *auth.KeycloakTokenValidator

	auditLogService      service.AuditLogService
	applicationService   service.ApplicationService
	phaseService         service.PhaseService
	documentService      service.DocumentService
	questionnaireService service.QuestionnaireService
	gateService          service.GateService
	paymentService       service.PaymentService
	organizationService  service.OrganizationService
	actionService        service.ActionService
	planService          service.PlanService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化结构化日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 2. 初始化数据库（带重试机制,指数退避）
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 初始化 WebSocket hub 与事件分发器
	hub := websocket.NewHub()
	go hub.Run()

	dispatcher := integration.NewDispatcher(db, logger, hub, cfg.Webhook.URL, cfg.Webhook.Workers)

	// 启动时补投未送达的事件
	if err := dispatcher.RetryPending(); err != nil {
		logger.WithError(err).Warn("failed to retry pending events")
	}

	// 4. 初始化 OpenFGA 客户端（带重试机制）
	fgaClient, err := auth.NewOpenFGAClientWithRetry(cfg.OpenFGA.APIURL, cfg.OpenFGA.StoreID, cfg.OpenFGA.ModelID, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenFGA client: %w", err)
	}

	// 5. 初始化 Keycloak Token 验证器
	keycloakValidator := auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer)

	// 6. 初始化服务
	auditLogService := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	applicationService := service.NewApplicationService(db, dispatcher, auditLogService)
	phaseService := service.NewPhaseService(db, dispatcher, auditLogService)
	documentService := service.NewDocumentService(db, dispatcher, auditLogService)
	questionnaireService := service.NewQuestionnaireService(db, dispatcher, auditLogService)
	gateService := service.NewGateService(db, dispatcher, auditLogService)
	paymentService := service.NewPaymentService(db, dispatcher, logger, auditLogService)
	organizationService := service.NewOrganizationService(db, auditLogService)
	actionService := service.NewActionService(db)
	planService := service.NewPlanService(db, auditLogService)

	// 7. 可选启动 NATS 支付事件消费者
	var paymentConsumer *integration.PaymentConsumer
	if cfg.NATS.Enabled {
		paymentConsumer, err = integration.NewPaymentConsumer(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.QueueGroup, paymentService, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize payment consumer: %w", err)
		}
	}

	// 8. 启动指标采集器
	collector := metrics.NewCollector(db, 30*time.Second)
	collector.Start()

	return &Container{
		db:                   db,
		logger:               logger,
		hub:                  hub,
		dispatcher:           dispatcher,
		paymentConsumer:      paymentConsumer,
		collector:            collector,
		fgaClient:            fgaClient,
		keycloakValidator:    keycloakValidator,
		auditLogService:      auditLogService,
		applicationService:   applicationService,
		phaseService:         phaseService,
		documentService:      documentService,
		questionnaireService: questionnaireService,
		gateService:          gateService,
		paymentService:       paymentService,
		organizationService:  organizationService,
		actionService:        actionService,
		planService:          planService,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志实例
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Dispatcher 获取事件分发器
func (c *Container) Dispatcher() *integration.Dispatcher {
	return c.dispatcher
}

// OpenFGAClient 获取 OpenFGA 客户端
func (c *Container) OpenFGAClient() *auth.OpenFGAClient {
	return c.fgaClient
}

// KeycloakValidator 获取 Keycloak Token 验证器
func (c *Container) KeycloakValidator() *auth.KeycloakTokenValidator {
	return c.keycloakValidator
}

// RouterDeps 构建路由依赖
func (c *Container) RouterDeps(cfg *config.Config) *api.RouterDeps {
	return &api.RouterDeps{
		DB:        c.db,
		Hub:       c.hub,
		Validator: c.keycloakValidator,
		FGAClient: c.fgaClient,

		ApplicationService:   c.applicationService,
		PhaseService:         c.phaseService,
		DocumentService:      c.documentService,
		QuestionnaireService: c.questionnaireService,
		GateService:          c.gateService,
		PaymentService:       c.paymentService,
		OrganizationService:  c.organizationService,
		ActionService:        c.actionService,
		PlanService:          c.planService,

		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.paymentConsumer != nil {
		c.paymentConsumer.Close()
	}
	if c.dispatcher != nil {
		c.dispatcher.Close()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
