package model

import (
	"errors"
	"time"
)

// ApplicationModel 按揭申请数据模型
type ApplicationModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	TenantID      string    `gorm:"type:varchar(64);not null;index"`
	BuyerID       string    `gorm:"type:varchar(64);not null;index"` // 购房人用户 ID
	PropertyUnit  string    `gorm:"type:varchar(64);not null;index"` // 房源单元引用
	PlanID        string    `gorm:"type:varchar(64);not null;index"` // 付款计划引用
	Status        string    `gorm:"type:varchar(32);not null;index"` // 申请状态
	TotalAmount   string    `gorm:"type:varchar(64);not null"`       // 总金额(十进制字符串)
	Currency      string    `gorm:"type:varchar(8);not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null;index"`
	SubmittedAt   *time.Time
	CompletedAt   *time.Time
}

// TableName 指定表名
func (ApplicationModel) TableName() string {
	return "applications"
}

// Validate 验证申请模型
func (am *ApplicationModel) Validate() error {
	if am.ID == "" {
		return errors.New("application ID is required")
	}
	if am.BuyerID == "" {
		return errors.New("buyer ID is required")
	}
	if am.PropertyUnit == "" {
		return errors.New("property unit is required")
	}
	if am.PlanID == "" {
		return errors.New("plan ID is required")
	}
	if am.Status == "" {
		return errors.New("application status is required")
	}
	return nil
}
