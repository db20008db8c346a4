package repository

import (
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
)

// OrganizationRepository 组织与绑定仓储接口
type OrganizationRepository interface {
	FindOrganization(id string) (*model.OrganizationModel, error)
	SaveOrganization(org *model.OrganizationModel) error
	SaveBinding(binding *model.BindingModel) error
	FindBinding(applicationID, organizationID, assignedAsType string) (*model.BindingModel, error)
	FindBindingsByApplication(applicationID string) ([]*model.BindingModel, error)
	FindBindingsByType(applicationID, assignedAsType string) ([]*model.BindingModel, error)
	UnsetPrimary(applicationID, assignedAsType string) error
	FindMember(userID string) (*model.MemberModel, error)
	SaveMember(member *model.MemberModel) error
}

// organizationRepository 组织仓储实现
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建组织仓储
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// FindOrganization 根据 ID 查找组织
func (r *organizationRepository) FindOrganization(id string) (*model.OrganizationModel, error) {
	var org model.OrganizationModel
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// SaveOrganization 保存组织
func (r *organizationRepository) SaveOrganization(org *model.OrganizationModel) error {
	return r.db.Save(org).Error
}

// SaveBinding 保存绑定
func (r *organizationRepository) SaveBinding(binding *model.BindingModel) error {
	if err := binding.Validate(); err != nil {
		return err
	}
	return r.db.Save(binding).Error
}

// FindBinding 查找唯一绑定 (application, organization, type)
func (r *organizationRepository) FindBinding(applicationID, organizationID, assignedAsType string) (*model.BindingModel, error) {
	var binding model.BindingModel
	err := r.db.Where("application_id = ? AND organization_id = ? AND assigned_as_type = ?",
		applicationID, organizationID, assignedAsType).First(&binding).Error
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

// FindBindingsByApplication 查找申请的全部绑定
func (r *organizationRepository) FindBindingsByApplication(applicationID string) ([]*model.BindingModel, error) {
	var bindings []*model.BindingModel
	err := r.db.Where("application_id = ?", applicationID).Order("created_at ASC").Find(&bindings).Error
	return bindings, err
}

// FindBindingsByType 查找申请下指定类型的绑定
func (r *organizationRepository) FindBindingsByType(applicationID, assignedAsType string) ([]*model.BindingModel, error) {
	var bindings []*model.BindingModel
	err := r.db.Where("application_id = ? AND assigned_as_type = ?", applicationID, assignedAsType).
		Order("created_at ASC").Find(&bindings).Error
	return bindings, err
}

// UnsetPrimary 原子地取消该类型下已有的主绑定
func (r *organizationRepository) UnsetPrimary(applicationID, assignedAsType string) error {
	return r.db.Model(&model.BindingModel{}).
		Where("application_id = ? AND assigned_as_type = ? AND is_primary = ?", applicationID, assignedAsType, true).
		Update("is_primary", false).Error
}

// FindMember 根据用户 ID 查找组织成员记录
func (r *organizationRepository) FindMember(userID string) (*model.MemberModel, error) {
	var member model.MemberModel
	if err := r.db.Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// SaveMember 保存组织成员记录
func (r *organizationRepository) SaveMember(member *model.MemberModel) error {
	return r.db.Save(member).Error
}
