package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/plan"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newQuestionnairePlan 单问卷阶段计划
func newQuestionnairePlan(autoDecision bool) *plan.Plan {
	return &plan.Plan{
		ID:       "plan-questionnaire",
		Name:     "eligibility only",
		Currency: "NGN",
		Phases: []plan.PhaseDefinition{
			{
				Name:     "eligibility",
				Category: phase.CategoryQuestionnaire,
				Questions: []phase.Question{
					{Key: "employment", Type: phase.QuestionTypeOption, Required: true, ScoreWeight: 1,
						OptionScores: map[string]float64{"SALARIED": 100, "SELF_EMPLOYED": 50}},
				},
				PassingScore:        60,
				AutoDecisionEnabled: autoDecision,
			},
		},
	}
}

// answers 构造单题答案
func answers(value string) []phase.Answer {
	return []phase.Answer{{Key: "employment", Value: json.RawMessage(`"` + value + `"`)}}
}

// TestQuestionnaireService_SubmitAndApprove 测试提交答案与人工批准
func TestQuestionnaireService_SubmitAndApprove(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewQuestionnaireService(db, nil, nil)

	detail := createApplication(t, appSvc, "plan-workflow")
	phaseID := detail.Phases[0].ID

	ph, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.SubmitAnswersRequest{Answers: answers("SALARIED")})
	require.NoError(t, err)
	assert.Equal(t, phase.StatusAwaitingApproval, ph.Status)
	require.NotNil(t, ph.Questionnaire.Score)
	assert.InDelta(t, 100, *ph.Questionnaire.Score, 0.001)
	assert.NotNil(t, ph.Questionnaire.SubmittedAt)

	// 非管理员不得审核
	err = svc.Review(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.ReviewQuestionnaireRequest{Decision: "APPROVE"})
	var forbidden *phase.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.Review(context.Background(), adminActor(), detail.Application.ID, phaseID,
		&service.ReviewQuestionnaireRequest{Decision: "APPROVE", Notes: "income verified"}))

	loaded, err := appSvc.Get(detail.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, phase.StatusCompleted, loaded.Phases[0].Status)
	// 批准后级联激活下一阶段
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[1].Status)
	assert.Equal(t, phase.ReviewDecisionApprove, loaded.Phases[0].Questionnaire.Review.Decision)
}

// TestQuestionnaireService_RejectAllowsResubmission 测试拒绝但不终止
func TestQuestionnaireService_RejectAllowsResubmission(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewQuestionnaireService(db, nil, nil)

	detail := createApplication(t, appSvc, "plan-workflow")
	phaseID := detail.Phases[0].ID

	_, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.SubmitAnswersRequest{Answers: answers("SELF_EMPLOYED")})
	require.NoError(t, err)

	require.NoError(t, svc.Review(context.Background(), adminActor(), detail.Application.ID, phaseID,
		&service.ReviewQuestionnaireRequest{Decision: "REJECT", Notes: "insufficient income"}))

	loaded, err := appSvc.Get(detail.Application.ID)
	require.NoError(t, err)
	// 阶段放回进行中,申请保持活跃
	assert.Equal(t, phase.StatusInProgress, loaded.Phases[0].Status)
	assert.Equal(t, string(phase.ApplicationStatusActive), loaded.Application.Status)

	// 可以重新提交
	ph, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.SubmitAnswersRequest{Answers: answers("SALARIED")})
	require.NoError(t, err)
	assert.Equal(t, phase.StatusAwaitingApproval, ph.Status)
}

// TestQuestionnaireService_RejectTerminates 测试拒绝并终止申请
func TestQuestionnaireService_RejectTerminates(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewQuestionnaireService(db, nil, nil)

	detail := createApplication(t, appSvc, "plan-workflow")
	phaseID := detail.Phases[0].ID

	_, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.SubmitAnswersRequest{Answers: answers("SELF_EMPLOYED")})
	require.NoError(t, err)

	require.NoError(t, svc.Review(context.Background(), adminActor(), detail.Application.ID, phaseID,
		&service.ReviewQuestionnaireRequest{Decision: "REJECT", Terminate: true}))

	loaded, err := appSvc.Get(detail.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, string(phase.ApplicationStatusCancelled), loaded.Application.Status)
}

// TestQuestionnaireService_AutoDecision 测试自动决定
func TestQuestionnaireService_AutoDecision(t *testing.T) {
	t.Run("passing score completes the phase", func(t *testing.T) {
		db := newTestDB(t)
		seedPlan(t, db, newQuestionnairePlan(true))
		appSvc := service.NewApplicationService(db, nil, nil)
		svc := service.NewQuestionnaireService(db, nil, nil)
		detail := createApplication(t, appSvc, "plan-questionnaire")

		_, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, detail.Phases[0].ID,
			&service.SubmitAnswersRequest{Answers: answers("SALARIED")})
		require.NoError(t, err)

		loaded, err := appSvc.Get(detail.Application.ID)
		require.NoError(t, err)
		assert.Equal(t, phase.StatusCompleted, loaded.Phases[0].Status)
		// 单阶段计划全部终态,申请完成
		assert.Equal(t, string(phase.ApplicationStatusCompleted), loaded.Application.Status)
		assert.Equal(t, "system", loaded.Phases[0].Questionnaire.Review.Reviewer)
	})

	t.Run("failing score cancels the application", func(t *testing.T) {
		db := newTestDB(t)
		seedPlan(t, db, newQuestionnairePlan(true))
		appSvc := service.NewApplicationService(db, nil, nil)
		svc := service.NewQuestionnaireService(db, nil, nil)
		detail := createApplication(t, appSvc, "plan-questionnaire")

		_, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, detail.Phases[0].ID,
			&service.SubmitAnswersRequest{Answers: answers("SELF_EMPLOYED")})
		require.NoError(t, err)

		loaded, err := appSvc.Get(detail.Application.ID)
		require.NoError(t, err)
		assert.Equal(t, string(phase.ApplicationStatusCancelled), loaded.Application.Status)
		assert.True(t, loaded.Phases[0].Questionnaire.Review.Terminate)
	})
}

// TestQuestionnaireService_SubmitValidation 测试答案校验
func TestQuestionnaireService_SubmitValidation(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	appSvc := service.NewApplicationService(db, nil, nil)
	svc := service.NewQuestionnaireService(db, nil, nil)
	detail := createApplication(t, appSvc, "plan-workflow")
	phaseID := detail.Phases[0].ID

	// 缺少必填项
	_, err := svc.Submit(context.Background(), customerActor(), detail.Application.ID, phaseID,
		&service.SubmitAnswersRequest{Answers: nil})
	var validationErr *phase.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// 对非问卷阶段提交
	_, err = svc.Submit(context.Background(), customerActor(), detail.Application.ID, detail.Phases[1].ID,
		&service.SubmitAnswersRequest{Answers: answers("SALARIED")})
	var invalid *phase.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}
