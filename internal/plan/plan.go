package plan

import (
	"fmt"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PhaseDefinition 付款计划中的阶段定义
// 创建申请时被解析为具体的 ApplicationPhase 实例
type PhaseDefinition struct {
	Name                     string   `json:"name"`
	Category                 phase.Category `json:"category"`
	RequiresPreviousComplete bool     `json:"requires_previous_phase_completion"`

	// QUESTIONNAIRE
	Questions           []phase.Question      `json:"questions,omitempty"`
	Strategy            phase.ScoringStrategy `json:"strategy,omitempty"`
	PassingScore        float64               `json:"passing_score,omitempty"`
	AutoDecisionEnabled bool                  `json:"auto_decision_enabled,omitempty"`

	// DOCUMENTATION
	RequiredDocuments []phase.DocumentDefinition `json:"required_documents,omitempty"`
	Stages            []phase.ApprovalStage      `json:"stages,omitempty"`

	// PAYMENT
	PercentOfPrice   decimal.Decimal `json:"percent_of_price,omitempty"`
	InstallmentCount int             `json:"installment_count,omitempty"`
	FrequencyMonths  int             `json:"frequency_months,omitempty"`
	AmountFormula    string          `json:"amount_formula,omitempty"`

	// GATE
	AllowedActions []phase.GateAction `json:"allowed_actions,omitempty"`
	GateSteps      []phase.GateStep   `json:"gate_steps,omitempty"`
}

// Plan 付款计划,持有有序的阶段定义
type Plan struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Currency  string            `json:"currency"`
	Phases    []PhaseDefinition `json:"phases"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Validate 校验计划定义
func (p *Plan) Validate() error {
	if p.Name == "" {
		return phase.NewValidationError("name", "plan name is required")
	}
	if len(p.Phases) == 0 {
		return phase.NewValidationError("phases", "plan must define at least one phase")
	}
	for i, def := range p.Phases {
		field := fmt.Sprintf("phases[%d]", i)
		if _, err := phase.ParseCategory(string(def.Category)); err != nil {
			return err
		}
		switch def.Category {
		case phase.CategoryQuestionnaire:
			if len(def.Questions) == 0 {
				return phase.NewValidationError(field+".questions", "questionnaire phase requires questions")
			}
		case phase.CategoryDocumentation:
			if len(def.Stages) == 0 {
				return phase.NewValidationError(field+".stages", "documentation phase requires approval stages")
			}
			if len(def.RequiredDocuments) == 0 {
				return phase.NewValidationError(field+".required_documents", "documentation phase requires document definitions")
			}
		case phase.CategoryPayment:
			if def.PercentOfPrice.LessThanOrEqual(decimal.Zero) {
				return phase.NewValidationError(field+".percent_of_price", "payment phase requires a positive percent of price")
			}
		case phase.CategoryGate:
			if len(def.AllowedActions) == 0 {
				return phase.NewValidationError(field+".allowed_actions", "gate phase requires allowed actions")
			}
		}
	}
	return nil
}

// Resolver 阶段模板解析器
// 在创建申请时把计划的阶段定义展开为具体阶段实例,
// 定义在此刻被快照,计划的后续修改不影响在途申请
type Resolver struct{}

// NewResolver 创建解析器
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve 展开阶段实例,order 连续且从 1 开始
func (r *Resolver) Resolve(p *Plan, applicationID string, totalAmount decimal.Decimal, now time.Time) ([]*phase.Phase, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	phases := make([]*phase.Phase, 0, len(p.Phases))
	for i, def := range p.Phases {
		ph := &phase.Phase{
			ID:                       uuid.New().String(),
			ApplicationID:            applicationID,
			Name:                     def.Name,
			Order:                    i + 1,
			Category:                 def.Category,
			Status:                   phase.StatusPending,
			RequiresPreviousComplete: def.RequiresPreviousComplete,
			CreatedAt:                now,
			UpdatedAt:                now,
		}

		switch def.Category {
		case phase.CategoryQuestionnaire:
			ph.Questionnaire = &phase.QuestionnaireExt{
				Questions:           append([]phase.Question(nil), def.Questions...),
				Strategy:            def.Strategy,
				PassingScore:        def.PassingScore,
				AutoDecisionEnabled: def.AutoDecisionEnabled,
			}
		case phase.CategoryDocumentation:
			ext := &phase.DocumentationExt{
				RequiredDocuments: append([]phase.DocumentDefinition(nil), def.RequiredDocuments...),
				Stages:            append([]phase.ApprovalStage(nil), def.Stages...),
			}
			ext.InitProgress()
			ph.Documentation = ext
		case phase.CategoryPayment:
			ph.Payment = &phase.PaymentExt{
				TotalAmount:      totalAmount.Mul(def.PercentOfPrice).Div(decimal.NewFromInt(100)),
				PaidAmount:       decimal.Zero,
				Currency:         p.Currency,
				PercentOfPrice:   def.PercentOfPrice,
				InstallmentCount: def.InstallmentCount,
				FrequencyMonths:  def.FrequencyMonths,
				AmountFormula:    def.AmountFormula,
			}
		case phase.CategoryGate:
			steps := append([]phase.GateStep(nil), def.GateSteps...)
			for j := range steps {
				if steps[j].ID == "" {
					steps[j].ID = uuid.New().String()
				}
			}
			ph.Gate = &phase.GateExt{
				AllowedActions: append([]phase.GateAction(nil), def.AllowedActions...),
				Steps:          steps,
			}
		}

		if err := ph.Validate(); err != nil {
			return nil, err
		}
		phases = append(phases, ph)
	}
	return phases, nil
}
