package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationService 组织绑定服务接口
// 绑定是授权原语: 用户能否代表某参与方类型操作申请,取决于其组织
// 是否持有该类型的有效绑定
type OrganizationService interface {
	Bind(ctx context.Context, actor Actor, applicationID string, req *BindOrganizationRequest) (*model.BindingModel, error)
	ListBindings(applicationID string) ([]*model.BindingModel, error)
	IsOrganizationBound(applicationID, organizationID, typeCode string) (bool, error)
	GetUserOrganizationBinding(applicationID, userID string) (*model.BindingModel, error)
	ResolvePartyType(applicationID, userID string) (phase.OrgType, error)
}

// BindOrganizationRequest 绑定组织请求
// @Description 绑定组织到申请的请求参数
type BindOrganizationRequest struct {
	OrganizationID       string `json:"organization_id" example:"org-001" binding:"required"`      // 组织 ID
	OrganizationTypeCode string `json:"organization_type_code" example:"BANK" binding:"required"`  // 绑定的组织类型
	IsPrimary            bool   `json:"is_primary" example:"true"`                                 // 是否主绑定
	SLAHours             int    `json:"sla_hours" example:"48"`                                    // 参考时限(小时)
}

// organizationService 组织绑定服务实现
type organizationService struct {
	db          *gorm.DB
	auditLogSvc AuditLogService
}

// NewOrganizationService 创建组织绑定服务
func NewOrganizationService(db *gorm.DB, auditLogSvc AuditLogService) OrganizationService {
	return &organizationService{
		db:          db,
		auditLogSvc: auditLogSvc,
	}
}

// Bind 绑定组织到申请,仅管理员
// 组织必须实际持有该类型;相同 (申请,组织,类型) 的绑定已存在时返回冲突;
// 设为主绑定时原子地取消该类型下已有的主绑定
func (s *organizationService) Bind(ctx context.Context, actor Actor, applicationID string, req *BindOrganizationRequest) (*model.BindingModel, error) {
	if !actor.IsAdmin {
		return nil, phase.NewForbidden("binding an organization requires admin role")
	}
	typeCode, err := phase.ParseOrgType(req.OrganizationTypeCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	binding := &model.BindingModel{
		ID:             uuid.New().String(),
		ApplicationID:  applicationID,
		OrganizationID: req.OrganizationID,
		AssignedAsType: string(typeCode),
		Status:         string(phase.BindingStatusActive),
		IsPrimary:      req.IsPrimary,
		SLAHours:       req.SLAHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadApplicationTx(tx, applicationID); err != nil {
			return err
		}

		orgRepo := repository.NewOrganizationRepository(tx)
		org, err := orgRepo.FindOrganization(req.OrganizationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return phase.NewNotFound("organization", req.OrganizationID)
			}
			return err
		}
		if !org.HoldsType(string(typeCode)) {
			return phase.NewValidationError("organization_type_code",
				fmt.Sprintf("organization %s does not hold type %s", org.Name, typeCode))
		}

		if _, err := orgRepo.FindBinding(applicationID, req.OrganizationID, string(typeCode)); err == nil {
			return phase.NewConflict(fmt.Sprintf("organization %s is already bound as %s", org.Name, typeCode))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if req.IsPrimary {
			if err := orgRepo.UnsetPrimary(applicationID, string(typeCode)); err != nil {
				return err
			}
		}
		return orgRepo.SaveBinding(binding)
	})
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "bind", model.AuditResourceBinding, binding.ID,
			map[string]string{"application_id": applicationID, "organization_id": req.OrganizationID, "type": string(typeCode)})
	}
	return binding, nil
}

// ListBindings 查询申请的全部绑定
func (s *organizationService) ListBindings(applicationID string) ([]*model.BindingModel, error) {
	return repository.NewOrganizationRepository(s.db).FindBindingsByApplication(applicationID)
}

// IsOrganizationBound 判断组织是否以指定类型绑定到申请
// ACTIVE/PENDING 允许操作,COMPLETED 保留历史访问
func (s *organizationService) IsOrganizationBound(applicationID, organizationID, typeCode string) (bool, error) {
	binding, err := repository.NewOrganizationRepository(s.db).FindBinding(applicationID, organizationID, typeCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	switch phase.BindingStatus(binding.Status) {
	case phase.BindingStatusActive, phase.BindingStatusPending, phase.BindingStatusCompleted:
		return true, nil
	}
	return false, nil
}

// GetUserOrganizationBinding 解析用户在申请上的组织绑定
// 用户 → 组织成员记录 → 该组织在申请上的绑定,优先主绑定
func (s *organizationService) GetUserOrganizationBinding(applicationID, userID string) (*model.BindingModel, error) {
	orgRepo := repository.NewOrganizationRepository(s.db)
	member, err := orgRepo.FindMember(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewForbidden("user does not belong to any organization")
		}
		return nil, err
	}

	bindings, err := orgRepo.FindBindingsByApplication(applicationID)
	if err != nil {
		return nil, err
	}

	var found *model.BindingModel
	for _, b := range bindings {
		if b.OrganizationID != member.OrganizationID {
			continue
		}
		if b.Status == string(phase.BindingStatusWithdrawn) {
			continue
		}
		if found == nil || (b.IsPrimary && !found.IsPrimary) {
			found = b
		}
	}
	if found == nil {
		return nil, phase.NewForbidden("user's organization is not bound to this application")
	}
	return found, nil
}

// ResolvePartyType 解析用户在申请上代表的参与方类型
func (s *organizationService) ResolvePartyType(applicationID, userID string) (phase.OrgType, error) {
	binding, err := s.GetUserOrganizationBinding(applicationID, userID)
	if err != nil {
		return "", err
	}
	return phase.ParseOrgType(binding.AssignedAsType)
}
