package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedOrganization 落库一个组织及其成员
func seedOrganization(t *testing.T, db *gorm.DB, orgID, types string, userIDs ...string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&model.OrganizationModel{
		ID:        orgID,
		Name:      orgID,
		Types:     types,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
	for _, userID := range userIDs {
		require.NoError(t, db.Create(&model.MemberModel{
			ID:             orgID + "-" + userID,
			UserID:         userID,
			OrganizationID: orgID,
			Role:           "member",
			CreatedAt:      now,
		}).Error)
	}
}

// TestOrganizationService_Bind 测试绑定组织
func TestOrganizationService_Bind(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	seedOrganization(t, db, "org-bank", "BANK,PLATFORM")
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewOrganizationService(db, nil)
	detail := createApplication(t, appSvc, "plan-workflow")
	appID := detail.Application.ID

	// 仅管理员
	_, err := svc.Bind(context.Background(), customerActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "BANK",
	})
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	binding, err := svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "BANK", IsPrimary: true, SLAHours: 48,
	})
	require.NoError(t, err)
	assert.Equal(t, string(phase.BindingStatusActive), binding.Status)
	assert.True(t, binding.IsPrimary)

	// 相同 (申请,组织,类型) 重复绑定冲突
	_, err = svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "BANK",
	})
	var conflict *phase.ConflictError
	require.ErrorAs(t, err, &conflict)

	// 组织未持有的类型不可绑定
	_, err = svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "DEVELOPER",
	})
	var validationErr *phase.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// 组织不存在
	_, err = svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-missing", OrganizationTypeCode: "BANK",
	})
	var notFound *phase.NotFoundError
	require.ErrorAs(t, err, &notFound)

	bindings, err := svc.ListBindings(appID)
	require.NoError(t, err)
	assert.Len(t, bindings, 1)
}

// TestOrganizationService_PrimaryReplacement 测试主绑定的原子切换
func TestOrganizationService_PrimaryReplacement(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	seedOrganization(t, db, "org-bank-a", "BANK")
	seedOrganization(t, db, "org-bank-b", "BANK")
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewOrganizationService(db, nil)
	detail := createApplication(t, appSvc, "plan-workflow")
	appID := detail.Application.ID

	first, err := svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank-a", OrganizationTypeCode: "BANK", IsPrimary: true,
	})
	require.NoError(t, err)

	second, err := svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank-b", OrganizationTypeCode: "BANK", IsPrimary: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	// 每个 (申请,类型) 至多一个主绑定
	bindings, err := svc.ListBindings(appID)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	for _, b := range bindings {
		if b.ID == first.ID {
			assert.False(t, b.IsPrimary)
		}
		if b.ID == second.ID {
			assert.True(t, b.IsPrimary)
		}
	}
}

// TestOrganizationService_ResolvePartyType 测试用户参与方类型解析
func TestOrganizationService_ResolvePartyType(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	seedOrganization(t, db, "org-bank", "BANK", "banker-001")
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewOrganizationService(db, nil)
	detail := createApplication(t, appSvc, "plan-workflow")
	appID := detail.Application.ID

	// 组织未绑定时禁止
	_, err := svc.ResolvePartyType(appID, "banker-001")
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "BANK",
	})
	require.NoError(t, err)

	party, err := svc.ResolvePartyType(appID, "banker-001")
	require.NoError(t, err)
	assert.Equal(t, phase.OrgTypeBank, party)

	// 不属于任何组织的用户禁止
	_, err = svc.ResolvePartyType(appID, "stranger-001")
	require.ErrorAs(t, err, &forbidden)
}

// TestOrganizationService_IsOrganizationBound 测试绑定状态判断
func TestOrganizationService_IsOrganizationBound(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	seedOrganization(t, db, "org-bank", "BANK")
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewOrganizationService(db, nil)
	detail := createApplication(t, appSvc, "plan-workflow")
	appID := detail.Application.ID

	bound, err := svc.IsOrganizationBound(appID, "org-bank", "BANK")
	require.NoError(t, err)
	assert.False(t, bound)

	_, err = svc.Bind(context.Background(), adminActor(), appID, &service.BindOrganizationRequest{
		OrganizationID: "org-bank", OrganizationTypeCode: "BANK",
	})
	require.NoError(t, err)

	bound, err = svc.IsOrganizationBound(appID, "org-bank", "BANK")
	require.NoError(t, err)
	assert.True(t, bound)
}
