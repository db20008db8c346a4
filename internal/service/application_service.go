package service

import (
	"context"
	"errors"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplicationService 按揭申请服务接口
type ApplicationService interface {
	Create(ctx context.Context, actor Actor, req *CreateApplicationRequest) (*ApplicationDetail, error)
	Get(applicationID string) (*ApplicationDetail, error)
	List(filter *repository.ApplicationFilter) ([]*model.ApplicationModel, int64, error)
	Events(applicationID string) ([]*model.EventModel, error)
	Cancel(ctx context.Context, actor Actor, applicationID, reason string) error
}

// CreateApplicationRequest 创建申请请求
// @Description 创建按揭申请的请求参数
type CreateApplicationRequest struct {
	TenantID     string `json:"tenant_id" example:"tenant-001"`                              // 租户 ID
	BuyerID      string `json:"buyer_id" example:"user-001" binding:"required"`              // 购房人用户 ID
	PropertyUnit string `json:"property_unit" example:"unit-001" binding:"required"`         // 房源单元引用
	PlanID       string `json:"plan_id" example:"plan-001" binding:"required"`               // 付款计划 ID
	TotalAmount  string `json:"total_amount" example:"25000000.00" binding:"required"`       // 房价总额(十进制字符串)
	Currency     string `json:"currency" example:"NGN"`                                      // 币种,默认取计划币种
}

// ApplicationDetail 申请详情,含有序阶段列表
type ApplicationDetail struct {
	Application *model.ApplicationModel `json:"application"`
	Phases      []*phase.Phase          `json:"phases"`
}

// applicationService 申请服务实现
type applicationService struct {
	db          *gorm.DB
	lc          *lifecycle
	resolver    *plan.Resolver
	auditLogSvc AuditLogService
}

// NewApplicationService 创建申请服务
func NewApplicationService(db *gorm.DB, dispatcher *integration.Dispatcher, auditLogSvc AuditLogService) ApplicationService {
	return &applicationService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		resolver:    plan.NewResolver(),
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建申请
// 把付款计划的阶段定义快照为具体阶段实例,首个阶段自动激活
func (s *applicationService) Create(ctx context.Context, actor Actor, req *CreateApplicationRequest) (*ApplicationDetail, error) {
	p, err := repository.NewPlanRepository(s.db).FindByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewNotFound("plan", req.PlanID)
		}
		return nil, err
	}

	totalAmount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil || totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, phase.NewValidationError("total_amount", "total amount must be a positive decimal")
	}

	currency := req.Currency
	if currency == "" {
		currency = p.Currency
	}

	now := time.Now()
	app := &model.ApplicationModel{
		ID:           uuid.New().String(),
		TenantID:     req.TenantID,
		BuyerID:      req.BuyerID,
		PropertyUnit: req.PropertyUnit,
		PlanID:       p.ID,
		Status:       string(phase.ApplicationStatusActive),
		TotalAmount:  totalAmount.String(),
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
		SubmittedAt:  &now,
	}
	if err := app.Validate(); err != nil {
		return nil, phase.NewValidationError("", err.Error())
	}

	phases, err := s.resolver.Resolve(p, app.ID, totalAmount, now)
	if err != nil {
		return nil, err
	}

	var events []*integration.Event
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewApplicationRepository(tx).Save(app); err != nil {
			return err
		}
		for _, ph := range phases {
			if err := savePhase(tx, ph); err != nil {
				return err
			}
		}

		// 首个阶段自动激活
		evt, err := s.lc.activate(tx, phases, phases[0], "system", now)
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lc.notify(events)
	metrics.RecordApplicationCreated()
	s.audit(ctx, actor.UserID, "create", app.ID, map[string]string{"plan_id": p.ID, "buyer_id": req.BuyerID})

	return &ApplicationDetail{Application: app, Phases: phases}, nil
}

// Get 获取申请详情
func (s *applicationService) Get(applicationID string) (*ApplicationDetail, error) {
	app, err := repository.NewApplicationRepository(s.db).FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewNotFound("application", applicationID)
		}
		return nil, err
	}
	phases, err := repository.NewPhaseRepository(s.db).FindByApplication(applicationID)
	if err != nil {
		return nil, err
	}
	return &ApplicationDetail{Application: app, Phases: phases}, nil
}

// List 按过滤器查询申请,返回当前页数据和总记录数
func (s *applicationService) List(filter *repository.ApplicationFilter) ([]*model.ApplicationModel, int64, error) {
	return repository.NewApplicationRepository(s.db).FindByFilter(filter)
}

// Events 查询申请的领域事件日志
func (s *applicationService) Events(applicationID string) ([]*model.EventModel, error) {
	return repository.NewEventRepository(s.db).FindByApplication(applicationID)
}

// Cancel 取消申请,仅管理员;终态申请不可取消
func (s *applicationService) Cancel(ctx context.Context, actor Actor, applicationID, reason string) error {
	if !actor.IsAdmin {
		return phase.NewForbidden("cancelling an application requires admin role")
	}

	now := time.Now()
	var events []*integration.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
		app, err := loadApplicationTx(tx, applicationID)
		if err != nil {
			return err
		}
		if phase.ApplicationStatus(app.Status).IsTerminal() {
			return phase.NewInvalidTransition("application", app.Status, "cancel", "application is already terminal")
		}

		evt, err := s.lc.cancelApplication(tx, app, phase.ApplicationStatusCancelled, reason, now)
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "cancel", applicationID, map[string]string{"reason": reason})
	return nil
}

// audit 记录审计日志,失败只忽略不阻断
func (s *applicationService) audit(ctx context.Context, userID, action, resourceID string, details interface{}) {
	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, action, model.AuditResourceApplication, resourceID, details)
	}
}
