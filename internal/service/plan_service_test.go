package service_test

import (
	"context"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPlanService_Create 测试创建付款计划
func TestPlanService_Create(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewPlanService(db, nil)

	req := &service.CreatePlanRequest{
		Name:     "standard mortgage",
		Currency: "NGN",
		Phases:   newWorkflowPlan().Phases,
	}

	// 仅管理员
	_, err := svc.Create(context.Background(), customerActor(), req)
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	created, err := svc.Create(context.Background(), adminActor(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// 创建后可完整读回
	loaded, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "standard mortgage", loaded.Name)
	require.Len(t, loaded.Phases, 4)
	assert.Equal(t, phase.CategoryQuestionnaire, loaded.Phases[0].Category)
	assert.True(t, loaded.Phases[2].PercentOfPrice.Equal(decimal.NewFromInt(20)))
}

// TestPlanService_Create_Validation 测试计划校验
func TestPlanService_Create_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewPlanService(db, nil)

	var validationErr *phase.ValidationError

	// 无阶段
	_, err := svc.Create(context.Background(), adminActor(), &service.CreatePlanRequest{
		Name: "empty", Currency: "NGN",
	})
	require.ErrorAs(t, err, &validationErr)

	// 问卷阶段缺少问题
	_, err = svc.Create(context.Background(), adminActor(), &service.CreatePlanRequest{
		Name: "bad", Currency: "NGN",
		Phases: []plan.PhaseDefinition{{Name: "eligibility", Category: phase.CategoryQuestionnaire}},
	})
	require.ErrorAs(t, err, &validationErr)

	// 支付阶段比例必须为正
	_, err = svc.Create(context.Background(), adminActor(), &service.CreatePlanRequest{
		Name: "bad", Currency: "NGN",
		Phases: []plan.PhaseDefinition{{Name: "payment", Category: phase.CategoryPayment}},
	})
	assert.ErrorAs(t, err, &validationErr)
}

// TestPlanService_GetAndList 测试计划查询
func TestPlanService_GetAndList(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewPlanService(db, nil)

	_, err := svc.Get("missing")
	var notFound *phase.NotFoundError
	require.ErrorAs(t, err, &notFound)

	seedPlan(t, db, newWorkflowPlan())
	seedPlan(t, db, newGatePlan())

	plans, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
