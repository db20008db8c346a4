package plan_test

import (
	"testing"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan() *plan.Plan {
	return &plan.Plan{
		ID:       "plan-001",
		Name:     "standard mortgage",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:     "eligibility",
				Category: phase.CategoryQuestionnaire,
				Questions: []phase.Question{
					{Key: "income", Type: phase.QuestionTypeNumber, Required: true, ScoreWeight: 1},
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
					{Order: 1, OrgType: phase.OrgTypePlatform, WaitForAllDocuments: true},
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
					{Name: "platform sign off", OrgType: phase.OrgTypePlatform},
				},
			},
		},
	}
}

// TestResolver_Resolve 测试阶段实例展开
func TestResolver_Resolve(t *testing.T) {
	p := newTestPlan()
	resolver := plan.NewResolver()

	phases, err := resolver.Resolve(p, "app-001", decimal.NewFromInt(1000000), time.Now())
	require.NoError(t, err)
	require.Len(t, phases, 4)

	// 序号连续且从 1 开始
	for i, ph := range phases {
		assert.Equal(t, i+1, ph.Order)
		assert.Equal(t, "app-001", ph.ApplicationID)
		assert.Equal(t, phase.StatusPending, ph.Status)
		assert.NotEmpty(t, ph.ID)
		require.NoError(t, ph.Validate())
	}

	// 支付阶段金额为总价的百分比
	payment := phases[2]
	require.NotNil(t, payment.Payment)
	assert.True(t, payment.Payment.TotalAmount.Equal(decimal.NewFromInt(200000)))
	assert.True(t, payment.Payment.PaidAmount.IsZero())
	assert.Equal(t, "NGN", payment.Payment.Currency)

	// 文档阶段进度已初始化
	doc := phases[1]
	require.NotNil(t, doc.Documentation)
	assert.Equal(t, 1, doc.Documentation.CurrentStageOrder)

	// 审批门步骤生成了 ID
	gate := phases[3]
	require.NotNil(t, gate.Gate)
	for _, step := range gate.Gate.Steps {
		assert.NotEmpty(t, step.ID)
		assert.False(t, step.Completed)
	}
}

// TestResolver_SnapshotIsolation 测试定义快照与计划解耦
func TestResolver_SnapshotIsolation(t *testing.T) {
	p := newTestPlan()
	resolver := plan.NewResolver()

	phases, err := resolver.Resolve(p, "app-001", decimal.NewFromInt(1000000), time.Now())
	require.NoError(t, err)

	// 修改计划不影响已展开的阶段
	p.Phases[1].RequiredDocuments[0].Type = "CHANGED"
	assert.Equal(t, "ID_CARD", phases[1].Documentation.RequiredDocuments[0].Type)
}

// TestPlan_Validate 测试计划校验
func TestPlan_Validate(t *testing.T) {
	var validationErr *phase.ValidationError

	empty := &plan.Plan{Name: "empty"}
	assert.ErrorAs(t, empty.Validate(), &validationErr)

	noName := newTestPlan()
	noName.Name = ""
	assert.ErrorAs(t, noName.Validate(), &validationErr)

	noQuestions := newTestPlan()
	noQuestions.Phases[0].Questions = nil
	assert.ErrorAs(t, noQuestions.Validate(), &validationErr)

	zeroPercent := newTestPlan()
	zeroPercent.Phases[2].PercentOfPrice = decimal.Zero
	assert.ErrorAs(t, zeroPercent.Validate(), &validationErr)

	assert.NoError(t, newTestPlan().Validate())
}
