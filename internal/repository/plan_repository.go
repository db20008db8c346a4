package repository

import (
	"encoding/json"
	"fmt"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"gorm.io/gorm"
)

// PlanRepository 付款计划仓储接口
type PlanRepository interface {
	Save(p *plan.Plan, createdBy string) error
	FindByID(id string) (*plan.Plan, error)
	FindAll() ([]*plan.Plan, error)
}

// planRepository 付款计划仓储实现
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建付款计划仓储
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Save 保存付款计划
func (r *planRepository) Save(p *plan.Plan, createdBy string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	pm := &model.PlanModel{
		ID:        p.ID,
		Name:      p.Name,
		Currency:  p.Currency,
		Data:      data,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		CreatedBy: createdBy,
	}
	if err := pm.Validate(); err != nil {
		return err
	}
	return r.db.Save(pm).Error
}

// FindByID 根据 ID 查找付款计划
func (r *planRepository) FindByID(id string) (*plan.Plan, error) {
	var pm model.PlanModel
	if err := r.db.Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, err
	}
	return toPlan(&pm)
}

// FindAll 查找全部付款计划
func (r *planRepository) FindAll() ([]*plan.Plan, error) {
	var rows []*model.PlanModel
	if err := r.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	plans := make([]*plan.Plan, 0, len(rows))
	for _, pm := range rows {
		p, err := toPlan(pm)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func toPlan(pm *model.PlanModel) (*plan.Plan, error) {
	var p plan.Plan
	if err := json.Unmarshal(pm.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %s: %w", pm.ID, err)
	}
	return &p, nil
}
