package service

import (
	"context"
	"errors"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService 付款计划服务接口
type PlanService interface {
	Create(ctx context.Context, actor Actor, req *CreatePlanRequest) (*plan.Plan, error)
	Get(id string) (*plan.Plan, error)
	List() ([]*plan.Plan, error)
}

// CreatePlanRequest 创建付款计划请求
// @Description 创建付款计划的请求参数
type CreatePlanRequest struct {
	Name     string                 `json:"name" example:"标准按揭" binding:"required"` // 计划名称
	Currency string                 `json:"currency" example:"NGN" binding:"required"` // 币种
	Phases   []plan.PhaseDefinition `json:"phases" binding:"required"`              // 有序阶段定义
}

// planService 付款计划服务实现
type planService struct {
	db          *gorm.DB
	auditLogSvc AuditLogService
}

// NewPlanService 创建付款计划服务
func NewPlanService(db *gorm.DB, auditLogSvc AuditLogService) PlanService {
	return &planService{
		db:          db,
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建付款计划,仅管理员
func (s *planService) Create(ctx context.Context, actor Actor, req *CreatePlanRequest) (*plan.Plan, error) {
	if !actor.IsAdmin {
		return nil, phase.NewForbidden("creating a plan requires admin role")
	}

	now := time.Now()
	p := &plan.Plan{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Currency:  req.Currency,
		Phases:    req.Phases,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := repository.NewPlanRepository(s.db).Save(p, actor.UserID); err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "create", model.AuditResourcePlan, p.ID, map[string]string{"name": p.Name})
	}
	return p, nil
}

// Get 获取付款计划
func (s *planService) Get(id string) (*plan.Plan, error) {
	p, err := repository.NewPlanRepository(s.db).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewNotFound("plan", id)
		}
		return nil, err
	}
	return p, nil
}

// List 查询全部付款计划
func (s *planService) List() ([]*plan.Plan, error) {
	return repository.NewPlanRepository(s.db).FindAll()
}
