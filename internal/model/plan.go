package model

import (
	"errors"
	"time"
)

// PlanModel 付款计划数据模型
// Data 存放序列化后的 plan.Plan 对象(含阶段定义)
type PlanModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Currency  string    `gorm:"type:varchar(8);not null"`
	Data      []byte    `gorm:"type:jsonb;not null"` // 序列化后的 Plan 对象
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"` // 创建人 ID
}

// TableName 指定表名
func (PlanModel) TableName() string {
	return "payment_plans"
}

// Validate 验证计划模型
func (pm *PlanModel) Validate() error {
	if pm.ID == "" {
		return errors.New("plan ID is required")
	}
	if pm.Name == "" {
		return errors.New("plan name is required")
	}
	if len(pm.Data) == 0 {
		return errors.New("plan data is required")
	}
	return nil
}
