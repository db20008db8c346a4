package phase

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType 问题类型
type QuestionType string

const (
	QuestionTypeNumber QuestionType = "NUMBER"
	QuestionTypeOption QuestionType = "OPTION"
	QuestionTypeText   QuestionType = "TEXT"
)

// ScoringStrategy 问卷总分聚合策略
type ScoringStrategy string

const (
	// StrategyMinimum 取所有加权得分的最小值
	StrategyMinimum ScoringStrategy = "MINIMUM"
	// StrategyWeightedAverage 按权重求加权平均
	StrategyWeightedAverage ScoringStrategy = "WEIGHTED_AVERAGE"
)

// NumericRule 数值比较计分规则: 答案满足 [Min, Max] 时得 Score
type NumericRule struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Score float64  `json:"score"`
}

// Question 问题定义,激活时从付款计划快照而来
// 模板后续修改不影响在途申请
type Question struct {
	Key          string             `json:"key"`
	Label        string             `json:"label"`
	Type         QuestionType       `json:"type"`
	Required     bool               `json:"required"`
	ScoreWeight  float64            `json:"score_weight"`
	NumericRules []NumericRule      `json:"numeric_rules,omitempty"`
	OptionScores map[string]float64 `json:"option_scores,omitempty"`
}

// Answer 已提交的答案
type Answer struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// QuestionnaireReview 问卷人工审核决定
type QuestionnaireReview struct {
	Decision  ReviewDecision `json:"decision"`
	Notes     string         `json:"notes,omitempty"`
	Reviewer  string         `json:"reviewer"`
	Terminate bool           `json:"terminate,omitempty"`
	Time      time.Time      `json:"time"`
}

// QuestionnaireExt QUESTIONNAIRE 阶段扩展
type QuestionnaireExt struct {
	Questions           []Question           `json:"questions"`
	Answers             []Answer             `json:"answers,omitempty"`
	Score               *float64             `json:"score,omitempty"`
	Strategy            ScoringStrategy      `json:"strategy"`
	PassingScore        float64              `json:"passing_score"`
	AutoDecisionEnabled bool                 `json:"auto_decision_enabled"`
	SubmittedAt         *time.Time           `json:"submitted_at,omitempty"`
	Review              *QuestionnaireReview `json:"review,omitempty"`
}

// ValidateAnswers 校验所有必填问题均有答案
func (q *QuestionnaireExt) ValidateAnswers(answers []Answer) error {
	byKey := make(map[string]Answer, len(answers))
	for _, a := range answers {
		if _, dup := byKey[a.Key]; dup {
			return NewValidationError("answers", fmt.Sprintf("duplicate answer for question %q", a.Key))
		}
		byKey[a.Key] = a
	}

	known := make(map[string]bool, len(q.Questions))
	for _, question := range q.Questions {
		known[question.Key] = true
		a, ok := byKey[question.Key]
		if question.Required && (!ok || len(a.Value) == 0 || string(a.Value) == "null" || string(a.Value) == `""`) {
			return NewValidationError("answers."+question.Key, "required question is not answered")
		}
	}
	for key := range byKey {
		if !known[key] {
			return NewValidationError("answers."+key, "answer does not match any question")
		}
	}
	return nil
}

// ComputeScore 按计分规则计算各题得分并按策略聚合
func (q *QuestionnaireExt) ComputeScore(answers []Answer) (float64, error) {
	byKey := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byKey[a.Key] = a
	}

	var weightedScores []float64
	var weights []float64
	for _, question := range q.Questions {
		if question.ScoreWeight == 0 {
			continue
		}
		a, ok := byKey[question.Key]
		if !ok {
			continue
		}
		score, err := scoreAnswer(question, a)
		if err != nil {
			return 0, err
		}
		weightedScores = append(weightedScores, score*question.ScoreWeight)
		weights = append(weights, question.ScoreWeight)
	}

	if len(weightedScores) == 0 {
		return 0, nil
	}

	switch q.Strategy {
	case StrategyWeightedAverage:
		var sum, weightSum float64
		for i, s := range weightedScores {
			sum += s
			weightSum += weights[i]
		}
		return sum / weightSum, nil
	case StrategyMinimum, "":
		min := weightedScores[0]
		for _, s := range weightedScores[1:] {
			if s < min {
				min = s
			}
		}
		return min, nil
	}
	return 0, NewValidationError("strategy", fmt.Sprintf("unknown scoring strategy: %s", q.Strategy))
}

// scoreAnswer 对单题计分
func scoreAnswer(question Question, answer Answer) (float64, error) {
	switch question.Type {
	case QuestionTypeNumber:
		var value float64
		if err := json.Unmarshal(answer.Value, &value); err != nil {
			return 0, NewValidationError("answers."+question.Key, "expected a numeric answer")
		}
		for _, rule := range question.NumericRules {
			if rule.Min != nil && value < *rule.Min {
				continue
			}
			if rule.Max != nil && value > *rule.Max {
				continue
			}
			return rule.Score, nil
		}
		return 0, nil
	case QuestionTypeOption:
		var option string
		if err := json.Unmarshal(answer.Value, &option); err != nil {
			return 0, NewValidationError("answers."+question.Key, "expected an option answer")
		}
		score, ok := question.OptionScores[option]
		if !ok {
			return 0, NewValidationError("answers."+question.Key, fmt.Sprintf("option %q is not defined", option))
		}
		return score, nil
	case QuestionTypeText:
		// 文本题不计分
		return 0, nil
	}
	return 0, NewValidationError("questions."+question.Key, fmt.Sprintf("unknown question type: %s", question.Type))
}
