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

// newTwoGatePlan 两个串联审批门阶段的计划
func newTwoGatePlan() *plan.Plan {
	return &plan.Plan{
		ID:       "plan-two-gates",
		Name:     "double sign off",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:           "bank approval",
				Category:       phase.CategoryGate,
				AllowedActions: []phase.GateAction{phase.GateActionApprove},
				GateSteps:      []phase.GateStep{{ID: "step-bank", Name: "bank sign off", OrgType: phase.OrgTypeBank}},
			},
			{
				Name:                     "platform approval",
				Category:                 phase.CategoryGate,
				RequiresPreviousComplete: true,
				AllowedActions:           []phase.GateAction{phase.GateActionApprove},
				GateSteps:                []phase.GateStep{{ID: "step-platform", Name: "platform sign off", OrgType: phase.OrgTypePlatform}},
			},
		},
	}
}

// TestPhaseService_GetAndList 测试阶段查询
func TestPhaseService_GetAndList(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newTwoGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPhaseService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-two-gates")

	ph, err := svc.Get(detail.Application.ID, detail.Phases[0].ID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusInProgress, ph.Status)

	// 阶段属于其他申请时按不存在处理
	_, err = svc.Get("other-application", detail.Phases[0].ID)
	var notFound *phase.NotFoundError
	require.ErrorAs(t, err, &notFound)

	phases, err := svc.ListByApplication(detail.Application.ID)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, 1, phases[0].Order)
	assert.Equal(t, 2, phases[1].Order)
}

// TestPhaseService_Activate 测试手动激活与前置条件
func TestPhaseService_Activate(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newTwoGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPhaseService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-two-gates")
	appID := detail.Application.ID

	// 前一阶段未终态,不可激活
	err := svc.Activate(context.Background(), adminActor(), appID, detail.Phases[1].ID)
	var invalid *phase.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// 已激活的阶段不可重复激活
	err = svc.Activate(context.Background(), adminActor(), appID, detail.Phases[0].ID)
	require.ErrorAs(t, err, &invalid)
}

// TestPhaseService_Skip 测试跳过阶段与级联
func TestPhaseService_Skip(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newTwoGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPhaseService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-two-gates")
	appID := detail.Application.ID

	// 仅管理员
	err := svc.Skip(context.Background(), bankActor(), appID, detail.Phases[0].ID, "not required")
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.Skip(context.Background(), adminActor(), appID, detail.Phases[0].ID, "bank waived"))

	// 跳过与完成同样触发级联激活
	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusSkipped, loaded.Phases[0].Status)
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[1].Status)

	require.NoError(t, svc.Skip(context.Background(), adminActor(), appID, detail.Phases[1].ID, "platform waived"))

	// 全部阶段终态,申请完成
	loaded, err = appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, string(phase.ApplicationStatusCompleted), loaded.Application.Status)
	assert.NotNil(t, loaded.Application.CompletedAt)
}

// TestPhaseService_Reopen 测试重开已完成阶段
func TestPhaseService_Reopen(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newTwoGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	gateSvc := service.NewGateService(db, nil, nil)
	svc := service.NewPhaseService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-two-gates")
	appID := detail.Application.ID

	require.NoError(t, gateSvc.PerformAction(context.Background(), bankActor(), appID, detail.Phases[0].ID, "step-bank",
		&service.GateActionRequest{Action: "APPROVE"}))

	// 进行中的阶段不可重开
	err := svc.Reopen(context.Background(), adminActor(), appID, detail.Phases[1].ID, &service.ReopenRequest{Reason: "oops"})
	var invalid *phase.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// 仅管理员
	err = svc.Reopen(context.Background(), bankActor(), appID, detail.Phases[0].ID, &service.ReopenRequest{Reason: "oops"})
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.Reopen(context.Background(), adminActor(), appID, detail.Phases[0].ID,
		&service.ReopenRequest{Reason: "terms renegotiated"}))

	// 默认重置后续阶段
	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[0].Status)
	assert.Nil(t, loaded.Phases[0].CompletedAt)
	assert.Equal(t, phase.StatusPending, loaded.Phases[1].Status)
}

// TestPhaseService_ReopenCompletedApplication 测试重开使申请回到进行中
func TestPhaseService_ReopenCompletedApplication(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newTwoGatePlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPhaseService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-two-gates")
	appID := detail.Application.ID

	require.NoError(t, svc.Skip(context.Background(), adminActor(), appID, detail.Phases[0].ID, "waived"))
	require.NoError(t, svc.Skip(context.Background(), adminActor(), appID, detail.Phases[1].ID, "waived"))

	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	require.Equal(t, string(phase.ApplicationStatusCompleted), loaded.Application.Status)

	// 跳过的阶段不可重开
	err = svc.Reopen(context.Background(), adminActor(), appID, detail.Phases[0].ID, &service.ReopenRequest{Reason: "retry"})
	var invalid *phase.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}
