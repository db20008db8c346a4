package model

import (
	"errors"
	"time"
)

// PhaseModel 申请阶段数据模型
// Data 存放序列化后的 phase.Phase 领域对象(含类别扩展和状态历史),
// 其余列为查询用的冗余索引字段
type PhaseModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	ApplicationID string    `gorm:"type:varchar(64);not null;index:idx_phases_app_order,unique"`
	PhaseOrder    int       `gorm:"column:phase_order;type:int;not null;index:idx_phases_app_order,unique"` // 申请内唯一且连续
	Category      string    `gorm:"type:varchar(32);not null;index"`
	Status        string    `gorm:"type:varchar(32);not null;index"`
	Data          []byte    `gorm:"type:jsonb;not null"` // 序列化后的 Phase 对象
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (PhaseModel) TableName() string {
	return "application_phases"
}

// Validate 验证阶段模型
func (pm *PhaseModel) Validate() error {
	if pm.ID == "" {
		return errors.New("phase ID is required")
	}
	if pm.ApplicationID == "" {
		return errors.New("application ID is required")
	}
	if pm.PhaseOrder < 1 {
		return errors.New("phase order must start at 1")
	}
	if pm.Category == "" {
		return errors.New("phase category is required")
	}
	if pm.Status == "" {
		return errors.New("phase status is required")
	}
	if len(pm.Data) == 0 {
		return errors.New("phase data is required")
	}
	return nil
}
