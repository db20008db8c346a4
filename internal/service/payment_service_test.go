package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPaymentPlan 单支付阶段计划,占总价 20%,4 期月付
func newPaymentPlan(formula string) *plan.Plan {
	return &plan.Plan{
		ID:       "plan-payment",
		Name:     "down payment only",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:             "down payment",
				Category:         phase.CategoryPayment,
				PercentOfPrice:   decimal.NewFromInt(20),
				InstallmentCount: 4,
				FrequencyMonths:  1,
				AmountFormula:    formula,
			},
		},
	}
}

// TestPaymentService_GenerateInstallments 测试生成均摊分期计划
func TestPaymentService_GenerateInstallments(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newPaymentPlan(""))
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPaymentService(db, nil, logrus.New(), nil)
	detail := createApplication(t, appSvc, "plan-payment")
	appID := detail.Application.ID
	phaseID := detail.Phases[0].ID

	// 仅管理员
	_, err := svc.GenerateInstallments(context.Background(), customerActor(), appID, phaseID,
		&service.GenerateInstallmentsRequest{StartDate: "2026-09-01"})
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	// 日期格式错误
	_, err = svc.GenerateInstallments(context.Background(), adminActor(), appID, phaseID,
		&service.GenerateInstallmentsRequest{StartDate: "01/09/2026"})
	var validationErr *phase.ValidationError
	require.ErrorAs(t, err, &validationErr)

	ext, err := svc.GenerateInstallments(context.Background(), adminActor(), appID, phaseID,
		&service.GenerateInstallmentsRequest{StartDate: "2026-09-01"})
	require.NoError(t, err)
	require.Len(t, ext.Installments, 4)

	// 均摊模式金额之和恒等于总额,到期日按月推进
	sum := decimal.Zero
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i, inst := range ext.Installments {
		assert.Equal(t, i+1, inst.Sequence)
		assert.Equal(t, start.AddDate(0, i, 0), inst.DueDate)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(ext.TotalAmount), "installments must sum to %s, got %s", ext.TotalAmount, sum)

	// 重复生成冲突
	_, err = svc.GenerateInstallments(context.Background(), adminActor(), appID, phaseID,
		&service.GenerateInstallmentsRequest{StartDate: "2026-09-01"})
	var conflict *phase.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

// TestPaymentService_GenerateInstallments_Formula 测试公式计算分期金额
func TestPaymentService_GenerateInstallments_Formula(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newPaymentPlan("Sum / Installments * (1 + Rate / 100)"))
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPaymentService(db, nil, logrus.New(), nil)
	detail := createApplication(t, appSvc, "plan-payment")

	ext, err := svc.GenerateInstallments(context.Background(), adminActor(), detail.Application.ID, detail.Phases[0].ID,
		&service.GenerateInstallmentsRequest{StartDate: "2026-09-01", InterestRate: "10"})
	require.NoError(t, err)
	require.Len(t, ext.Installments, 4)

	// 200000 / 4 * 1.1 = 55000,每期含息金额一致
	for _, inst := range ext.Installments {
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(55000)), "got %s", inst.Amount)
	}
}

// TestPaymentService_RecordPayment 测试入账与自动完成
func TestPaymentService_RecordPayment(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newPaymentPlan(""))
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPaymentService(db, nil, logrus.New(), nil)
	detail := createApplication(t, appSvc, "plan-payment")
	appID := detail.Application.ID
	phaseID := detail.Phases[0].ID

	require.NoError(t, svc.RecordPayment(context.Background(), appID, phaseID, decimal.NewFromInt(50000), "pay-001"))

	loaded, err := appSvc.Get(appID)
	require.NoError(t, err)
	assert.True(t, loaded.Phases[0].Payment.PaidAmount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[0].Status)
	assert.True(t, loaded.Phases[0].Payment.Outstanding().Equal(decimal.NewFromInt(150000)))

	// 同一支付引用重复投递被幂等忽略
	require.NoError(t, svc.RecordPayment(context.Background(), appID, phaseID, decimal.NewFromInt(50000), "pay-001"))
	loaded, err = appSvc.Get(appID)
	require.NoError(t, err)
	assert.True(t, loaded.Phases[0].Payment.PaidAmount.Equal(decimal.NewFromInt(50000)))

	// 付清后阶段自动完成并级联
	require.NoError(t, svc.RecordPayment(context.Background(), appID, phaseID, decimal.NewFromInt(150000), "pay-002"))
	loaded, err = appSvc.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusCompleted, loaded.Phases[0].Status)
	assert.Equal(t, string(phase.ApplicationStatusCompleted), loaded.Application.Status)

	// 终态阶段不再接受入账
	err = svc.RecordPayment(context.Background(), appID, phaseID, decimal.NewFromInt(1), "pay-003")
	var invalid *phase.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

// TestPaymentService_RecordPayment_Validation 测试入账参数校验
func TestPaymentService_RecordPayment_Validation(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newPaymentPlan(""))
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewPaymentService(db, nil, logrus.New(), nil)
	detail := createApplication(t, appSvc, "plan-payment")

	var validationErr *phase.ValidationError
	err := svc.RecordPayment(context.Background(), detail.Application.ID, detail.Phases[0].ID, decimal.NewFromInt(100), "")
	require.ErrorAs(t, err, &validationErr)

	err = svc.RecordPayment(context.Background(), detail.Application.ID, detail.Phases[0].ID, decimal.Zero, "pay-001")
	require.ErrorAs(t, err, &validationErr)

	// 申请不存在时事务整体回滚
	err = svc.RecordPayment(context.Background(), "missing", detail.Phases[0].ID, decimal.NewFromInt(100), "pay-002")
	var notFound *phase.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
