package model

import (
	"errors"
	"strings"
	"time"
)

// OrganizationModel 组织数据模型
// Types 为组织持有的类型代码,逗号分隔(如 "BANK,PLATFORM")
type OrganizationModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Types     string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (OrganizationModel) TableName() string {
	return "organizations"
}

// HoldsType 判断组织是否持有指定类型
func (om *OrganizationModel) HoldsType(typeCode string) bool {
	for _, t := range strings.Split(om.Types, ",") {
		if strings.TrimSpace(t) == typeCode {
			return true
		}
	}
	return false
}

// BindingModel 申请-组织绑定数据模型
// (application_id, organization_id, assigned_as_type) 组合唯一
type BindingModel struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)"`
	ApplicationID  string    `gorm:"type:varchar(64);not null;index:idx_bindings_unique,unique"`
	OrganizationID string    `gorm:"type:varchar(64);not null;index:idx_bindings_unique,unique"`
	AssignedAsType string    `gorm:"type:varchar(32);not null;index:idx_bindings_unique,unique"`
	Status         string    `gorm:"type:varchar(32);not null;index"`
	IsPrimary      bool      `gorm:"not null;default:false"` // 每个 (application, type) 至多一个
	SLAHours       int       `gorm:"type:int;default:0"`     // 提醒用的参考时限,引擎不强制
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName 指定表名
func (BindingModel) TableName() string {
	return "application_organizations"
}

// Validate 验证绑定模型
func (bm *BindingModel) Validate() error {
	if bm.ID == "" {
		return errors.New("binding ID is required")
	}
	if bm.ApplicationID == "" {
		return errors.New("application ID is required")
	}
	if bm.OrganizationID == "" {
		return errors.New("organization ID is required")
	}
	if bm.AssignedAsType == "" {
		return errors.New("assigned type is required")
	}
	if bm.Status == "" {
		return errors.New("binding status is required")
	}
	return nil
}

// MemberModel 组织成员数据模型,用于把用户解析到其组织
type MemberModel struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)"`
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_members_user_org,unique"`
	OrganizationID string    `gorm:"type:varchar(64);not null;index:idx_members_user_org,unique"`
	Role           string    `gorm:"type:varchar(64)"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName 指定表名
func (MemberModel) TableName() string {
	return "organization_members"
}
