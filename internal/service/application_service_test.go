package service_test

import (
	"context"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/database"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 创建内存数据库并建表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// seedPlan 落库一个付款计划
func seedPlan(t *testing.T, db *gorm.DB, p *plan.Plan) {
	t.Helper()
	require.NoError(t, repository.NewPlanRepository(db).Save(p, "admin-001"))
}

// adminActor 管理员操作主体
func adminActor() service.Actor {
	return service.Actor{UserID: "admin-001", PartyType: phase.OrgTypePlatform, IsAdmin: true}
}

// customerActor 购房人操作主体
func customerActor() service.Actor {
	return service.Actor{UserID: "user-001", OrganizationID: "org-customer", PartyType: phase.OrgTypeCustomer}
}

// bankActor 银行操作主体
func bankActor() service.Actor {
	return service.Actor{UserID: "bank-001", OrganizationID: "org-bank", PartyType: phase.OrgTypeBank}
}

// newWorkflowPlan 问卷→文档→支付→审批门的完整计划
func newWorkflowPlan() *plan.Plan {
	return &plan.Plan{
		ID:       "plan-workflow",
		Name:     "standard mortgage",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:     "eligibility",
				Category: phase.CategoryQuestionnaire,
				Questions: []phase.Question{
					{Key: "employment", Type: phase.QuestionTypeOption, Required: true, ScoreWeight: 1,
						OptionScores: map[string]float64{"SALARIED": 100, "SELF_EMPLOYED": 50}},
				},
				PassingScore: 60,
			},
			{
				Name:                     "documentation",
				Category:                 phase.CategoryDocumentation,
				RequiresPreviousComplete: true,
				RequiredDocuments: []phase.DocumentDefinition{
					{Type: "ID_CARD", UploadedBy: phase.OrgTypeCustomer},
				},
				Stages: []phase.ApprovalStage{
					{Order: 1, OrgType: phase.OrgTypeCustomer, WaitForAllDocuments: true},
				},
			},
			{
				Name:                     "down payment",
				Category:                 phase.CategoryPayment,
				RequiresPreviousComplete: true,
				PercentOfPrice:           decimal.NewFromInt(20),
				InstallmentCount:         4,
				FrequencyMonths:          1,
			},
			{
				Name:                     "final approval",
				Category:                 phase.CategoryGate,
				RequiresPreviousComplete: true,
				AllowedActions:           []phase.GateAction{phase.GateActionApprove, phase.GateActionReject},
				GateSteps: []phase.GateStep{
					{Name: "bank sign off", OrgType: phase.OrgTypeBank},
				},
			},
		},
	}
}

// createApplication 以默认参数创建一笔申请
func createApplication(t *testing.T, svc service.ApplicationService, planID string) *service.ApplicationDetail {
	t.Helper()
	detail, err := svc.Create(context.Background(), customerActor(), &service.CreateApplicationRequest{
		TenantID:     "tenant-001",
		BuyerID:      "user-001",
		PropertyUnit: "unit-001",
		PlanID:       planID,
		TotalAmount:  "1000000",
	})
	require.NoError(t, err)
	return detail
}

// TestApplicationService_Create 测试创建申请
func TestApplicationService_Create(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	svc := service.NewApplicationService(db, nil, nil)

	detail := createApplication(t, svc, "plan-workflow")

	assert.Equal(t, string(phase.ApplicationStatusActive), detail.Application.Status)
	assert.Equal(t, "1000000", detail.Application.TotalAmount)
	assert.Equal(t, "NGN", detail.Application.Currency)
	assert.NotNil(t, detail.Application.SubmittedAt)
	require.Len(t, detail.Phases, 4)

	// 首个阶段自动激活,其余等待
	assert.Equal(t, phase.StatusInProgress, detail.Phases[0].Status)
	for _, ph := range detail.Phases[1:] {
		assert.Equal(t, phase.StatusPending, ph.Status)
	}

	// 支付阶段金额按百分比快照
	assert.True(t, detail.Phases[2].Payment.TotalAmount.Equal(decimal.NewFromInt(200000)))

	// 详情可重新读出且阶段有序
	loaded, err := svc.Get(detail.Application.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Phases, 4)
	for i, ph := range loaded.Phases {
		assert.Equal(t, i+1, ph.Order)
	}
}

// TestApplicationService_Create_UnknownPlan 测试计划不存在
func TestApplicationService_Create_UnknownPlan(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewApplicationService(db, nil, nil)

	_, err := svc.Create(context.Background(), customerActor(), &service.CreateApplicationRequest{
		BuyerID:      "user-001",
		PropertyUnit: "unit-001",
		PlanID:       "missing",
		TotalAmount:  "1000000",
	})

	var notFound *phase.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestApplicationService_Create_InvalidAmount 测试非法金额
func TestApplicationService_Create_InvalidAmount(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	svc := service.NewApplicationService(db, nil, nil)

	for _, amount := range []string{"", "abc", "0", "-5"} {
		_, err := svc.Create(context.Background(), customerActor(), &service.CreateApplicationRequest{
			BuyerID:      "user-001",
			PropertyUnit: "unit-001",
			PlanID:       "plan-workflow",
			TotalAmount:  amount,
		})
		var validationErr *phase.ValidationError
		assert.ErrorAs(t, err, &validationErr, "amount %q should be rejected", amount)
	}
}

// TestApplicationService_Get_NotFound 测试查询不存在的申请
func TestApplicationService_Get_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewApplicationService(db, nil, nil)

	_, err := svc.Get("missing")

	var notFound *phase.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestApplicationService_List 测试按条件查询
func TestApplicationService_List(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	svc := service.NewApplicationService(db, nil, nil)

	createApplication(t, svc, "plan-workflow")
	createApplication(t, svc, "plan-workflow")

	buyer := "user-001"
	apps, total, err := svc.List(&repository.ApplicationFilter{BuyerID: &buyer})
	require.NoError(t, err)
	assert.Len(t, apps, 2)
	assert.EqualValues(t, 2, total)

	// 分页时总数不变
	apps, total, err = svc.List(&repository.ApplicationFilter{BuyerID: &buyer, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.EqualValues(t, 2, total)

	stranger := "somebody-else"
	apps, total, err = svc.List(&repository.ApplicationFilter{BuyerID: &stranger})
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.Zero(t, total)
}

// TestApplicationService_Cancel 测试取消申请
func TestApplicationService_Cancel(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	svc := service.NewApplicationService(db, nil, nil)
	detail := createApplication(t, svc, "plan-workflow")

	// 非管理员禁止
	err := svc.Cancel(context.Background(), customerActor(), detail.Application.ID, "changed my mind")
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.Cancel(context.Background(), adminActor(), detail.Application.ID, "buyer withdrew"))

	loaded, err := svc.Get(detail.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, string(phase.ApplicationStatusCancelled), loaded.Application.Status)

	// 终态申请不可再取消
	err = svc.Cancel(context.Background(), adminActor(), detail.Application.ID, "again")
	var invalid *phase.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}
