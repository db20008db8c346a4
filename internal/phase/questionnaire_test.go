package phase_test

import (
	"encoding/json"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func newQuestionnaireExt(strategy phase.ScoringStrategy) *phase.QuestionnaireExt {
	return &phase.QuestionnaireExt{
		Questions: []phase.Question{
			{
				Key:         "monthly_income",
				Type:        phase.QuestionTypeNumber,
				Required:    true,
				ScoreWeight: 1,
				NumericRules: []phase.NumericRule{
					{Min: floatPtr(500000), Score: 100},
					{Min: floatPtr(200000), Max: floatPtr(499999), Score: 60},
				},
			},
			{
				Key:          "employment_type",
				Type:         phase.QuestionTypeOption,
				Required:     true,
				ScoreWeight:  1,
				OptionScores: map[string]float64{"SALARIED": 100, "SELF_EMPLOYED": 50},
			},
			{
				Key:      "notes",
				Type:     phase.QuestionTypeText,
				Required: false,
			},
		},
		Strategy:     strategy,
		PassingScore: 70,
	}
}

// TestQuestionnaireExt_ValidateAnswers 测试答案校验
func TestQuestionnaireExt_ValidateAnswers(t *testing.T) {
	ext := newQuestionnaireExt(phase.StrategyMinimum)

	valid := []phase.Answer{
		{Key: "monthly_income", Value: json.RawMessage(`600000`)},
		{Key: "employment_type", Value: json.RawMessage(`"SALARIED"`)},
	}
	require.NoError(t, ext.ValidateAnswers(valid))

	var validationErr *phase.ValidationError

	// 缺少必填答案
	missing := valid[:1]
	assert.ErrorAs(t, ext.ValidateAnswers(missing), &validationErr)

	// 未知问题的答案
	unknown := append(append([]phase.Answer(nil), valid...), phase.Answer{Key: "ghost", Value: json.RawMessage(`1`)})
	assert.ErrorAs(t, ext.ValidateAnswers(unknown), &validationErr)

	// 重复答案
	dup := append(append([]phase.Answer(nil), valid...), valid[0])
	assert.ErrorAs(t, ext.ValidateAnswers(dup), &validationErr)
}

// TestQuestionnaireExt_ComputeScoreMinimum 测试最小值聚合策略
func TestQuestionnaireExt_ComputeScoreMinimum(t *testing.T) {
	ext := newQuestionnaireExt(phase.StrategyMinimum)

	answers := []phase.Answer{
		{Key: "monthly_income", Value: json.RawMessage(`600000`)}, // 100
		{Key: "employment_type", Value: json.RawMessage(`"SELF_EMPLOYED"`)}, // 50
	}
	score, err := ext.ComputeScore(answers)
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)
}

// TestQuestionnaireExt_ComputeScoreWeightedAverage 测试加权平均聚合策略
func TestQuestionnaireExt_ComputeScoreWeightedAverage(t *testing.T) {
	ext := newQuestionnaireExt(phase.StrategyWeightedAverage)
	ext.Questions[0].ScoreWeight = 3
	ext.Questions[1].ScoreWeight = 1

	answers := []phase.Answer{
		{Key: "monthly_income", Value: json.RawMessage(`300000`)}, // 60
		{Key: "employment_type", Value: json.RawMessage(`"SALARIED"`)}, // 100
	}
	score, err := ext.ComputeScore(answers)
	require.NoError(t, err)
	// (60*3 + 100*1) / 4 = 70
	assert.InDelta(t, 70.0, score, 0.001)
}

// TestQuestionnaireExt_ComputeScoreUnknownOption 测试未定义选项报错
func TestQuestionnaireExt_ComputeScoreUnknownOption(t *testing.T) {
	ext := newQuestionnaireExt(phase.StrategyMinimum)

	answers := []phase.Answer{
		{Key: "monthly_income", Value: json.RawMessage(`600000`)},
		{Key: "employment_type", Value: json.RawMessage(`"CONTRACTOR"`)},
	}
	_, err := ext.ComputeScore(answers)
	var validationErr *phase.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// TestQuestionnaireExt_NumericOutsideRules 测试数值落在所有规则之外
func TestQuestionnaireExt_NumericOutsideRules(t *testing.T) {
	ext := newQuestionnaireExt(phase.StrategyMinimum)

	answers := []phase.Answer{
		{Key: "monthly_income", Value: json.RawMessage(`100000`)}, // 无匹配规则 → 0
		{Key: "employment_type", Value: json.RawMessage(`"SALARIED"`)},
	}
	score, err := ext.ComputeScore(answers)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}
