package repository

import (
	"encoding/json"
	"fmt"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhaseRepository 阶段仓储接口
// 领域对象与数据行的转换在仓储内完成
type PhaseRepository interface {
	Save(ph *phase.Phase) error
	FindByID(id string) (*phase.Phase, error)
	FindByIDForUpdate(id string) (*phase.Phase, error)
	FindByApplication(applicationID string) ([]*phase.Phase, error)
	FindByApplicationForUpdate(applicationID string) ([]*phase.Phase, error)
}

// phaseRepository 阶段仓储实现
type phaseRepository struct {
	db *gorm.DB
}

// NewPhaseRepository 创建阶段仓储
func NewPhaseRepository(db *gorm.DB) PhaseRepository {
	return &phaseRepository{db: db}
}

// ToPhaseModel 把领域对象转换为数据行
func ToPhaseModel(ph *phase.Phase) (*model.PhaseModel, error) {
	data, err := json.Marshal(ph)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal phase: %w", err)
	}
	return &model.PhaseModel{
		ID:            ph.ID,
		ApplicationID: ph.ApplicationID,
		PhaseOrder:    ph.Order,
		Category:      string(ph.Category),
		Status:        string(ph.Status),
		Data:          data,
		CreatedAt:     ph.CreatedAt,
		UpdatedAt:     ph.UpdatedAt,
	}, nil
}

// ToPhase 把数据行还原为领域对象
func ToPhase(pm *model.PhaseModel) (*phase.Phase, error) {
	var ph phase.Phase
	if err := json.Unmarshal(pm.Data, &ph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phase %s: %w", pm.ID, err)
	}
	return &ph, nil
}

// Save 保存阶段
func (r *phaseRepository) Save(ph *phase.Phase) error {
	pm, err := ToPhaseModel(ph)
	if err != nil {
		return err
	}
	if err := pm.Validate(); err != nil {
		return err
	}
	return r.db.Save(pm).Error
}

// FindByID 根据 ID 查找阶段
func (r *phaseRepository) FindByID(id string) (*phase.Phase, error) {
	var pm model.PhaseModel
	if err := r.db.Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, err
	}
	return ToPhase(&pm)
}

// FindByIDForUpdate 根据 ID 查找阶段并加行锁
// sqlite 不支持 FOR UPDATE,测试环境下退化为普通读
func (r *phaseRepository) FindByIDForUpdate(id string) (*phase.Phase, error) {
	query := r.db
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var pm model.PhaseModel
	if err := query.Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, err
	}
	return ToPhase(&pm)
}

// FindByApplication 查找申请的全部阶段,按 order 升序
func (r *phaseRepository) FindByApplication(applicationID string) ([]*phase.Phase, error) {
	return r.findByApplication(r.db, applicationID)
}

// FindByApplicationForUpdate 查找申请的全部阶段并加行锁
func (r *phaseRepository) FindByApplicationForUpdate(applicationID string) ([]*phase.Phase, error) {
	query := r.db
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findByApplication(query, applicationID)
}

func (r *phaseRepository) findByApplication(query *gorm.DB, applicationID string) ([]*phase.Phase, error) {
	var rows []*model.PhaseModel
	if err := query.Where("application_id = ?", applicationID).Order("phase_order ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	phases := make([]*phase.Phase, 0, len(rows))
	for _, pm := range rows {
		ph, err := ToPhase(pm)
		if err != nil {
			return nil, err
		}
		phases = append(phases, ph)
	}
	return phases, nil
}
