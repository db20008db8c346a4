package service_test

import (
	"context"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGatePlan 单审批门阶段计划,银行与平台各一步
func newGatePlan() *plan.Plan {
	return &plan.Plan{
		ID:       "plan-gate",
		Name:     "final approval only",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:           "final approval",
				Category:       phase.CategoryGate,
				AllowedActions: []phase.GateAction{phase.GateActionApprove, phase.GateActionReject},
				GateSteps: []phase.GateStep{
					{ID: "step-bank", Name: "bank sign off", OrgType: phase.OrgTypeBank},
					{ID: "step-platform", Name: "platform sign off", OrgType: phase.OrgTypePlatform},
				},
			},
		},
	}
}

// TestGateService_ApproveAllSteps 测试全部步骤完成后阶段完成
func TestGateService_ApproveAllSteps(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewGateService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-gate")
	appID := detail.Application.ID
	phaseID := detail.Phases[0].ID

	// 步骤归属方不符
	err := svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-platform",
		&service.GateActionRequest{Action: "APPROVE"})
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-bank",
		&service.GateActionRequest{Action: "APPROVE", Comment: "loan approved"}))

	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[0].Status)

	// 已完成的步骤不可重复执行
	err = svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-bank",
		&service.GateActionRequest{Action: "APPROVE"})
	var conflict *phase.ConflictError
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, svc.PerformAction(context.Background(), adminActor(), appID, phaseID, "step-platform",
		&service.GateActionRequest{Action: "APPROVE"}))

	loaded, err = appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusCompleted, loaded.Phases[0].Status)
	assert.Equal(t, string(phase.ApplicationStatusCompleted), loaded.Application.Status)
	require.Len(t, loaded.Phases[0].Gate.Decisions, 2)
	assert.Equal(t, "loan approved", loaded.Phases[0].Gate.Decisions[0].Comment)
}

// TestGateService_RejectHaltsGate 测试拒绝使审批门停摆
func TestGateService_RejectHaltsGate(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewGateService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-gate")
	appID := detail.Application.ID
	phaseID := detail.Phases[0].ID

	require.NoError(t, svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-bank",
		&service.GateActionRequest{Action: "REJECT", Comment: "risk too high"}))

	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	assert.True(t, loaded.Phases[0].Gate.Halted)
	// 停摆不自动取消申请,由管理员跳过阶段或取消申请
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[0].Status)
	assert.Equal(t, string(phase.ApplicationStatusActive), loaded.Application.Status)

	// 停摆后任何动作都被拒绝
	err = svc.PerformAction(context.Background(), adminActor(), appID, phaseID, "step-platform",
		&service.GateActionRequest{Action: "APPROVE"})
	var conflict *phase.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

// TestGateService_ActionValidation 测试动作校验
func TestGateService_ActionValidation(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewGateService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-gate")
	appID := detail.Application.ID
	phaseID := detail.Phases[0].ID

	// 未知动作
	err := svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-bank",
		&service.GateActionRequest{Action: "SHRUG"})
	var validationErr *phase.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// 动作不在允许列表
	err = svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-bank",
		&service.GateActionRequest{Action: "CONFIRM"})
	require.ErrorAs(t, err, &validationErr)

	// 步骤不存在
	err = svc.PerformAction(context.Background(), bankActor(), appID, phaseID, "step-missing",
		&service.GateActionRequest{Action: "APPROVE"})
	var notFound *phase.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
