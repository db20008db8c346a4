package phase

import (
	"encoding/json"
	"fmt"
	"time"
)

// Phase 申请阶段领域对象
// 每个阶段附带且仅附带一个与 Category 一致的类别扩展,
// 序列化为带判别字段的标签变体(ext 字段按类别存放)
type Phase struct {
	ID                       string     `json:"id"`
	ApplicationID            string     `json:"application_id"`
	Name                     string     `json:"name"`
	Order                    int        `json:"order"`
	Category                 Category   `json:"category"`
	Status                   Status     `json:"status"`
	RequiresPreviousComplete bool       `json:"requires_previous_phase_completion"`
	ActivatedAt              *time.Time `json:"activated_at,omitempty"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`

	// 类别扩展,互斥,由 Category 判别
	Questionnaire *QuestionnaireExt `json:"-"`
	Documentation *DocumentationExt `json:"-"`
	Payment       *PaymentExt       `json:"-"`
	Gate          *GateExt          `json:"-"`

	// 状态变更历史,只追加
	StateHistory []*StateChange `json:"state_history"`
}

// StateChange 阶段状态变更记录
type StateChange struct {
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	Reason   string    `json:"reason,omitempty"`
	Operator string    `json:"operator"`
	Time     time.Time `json:"time"`
}

// phaseJSON Phase 的序列化形式,ext 按类别判别
type phaseJSON struct {
	ID                       string            `json:"id"`
	ApplicationID            string            `json:"application_id"`
	Name                     string            `json:"name"`
	Order                    int               `json:"order"`
	Category                 Category          `json:"category"`
	Status                   Status            `json:"status"`
	RequiresPreviousComplete bool              `json:"requires_previous_phase_completion"`
	ActivatedAt              *time.Time        `json:"activated_at,omitempty"`
	CompletedAt              *time.Time        `json:"completed_at,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
	Ext                      json.RawMessage   `json:"ext"`
	StateHistory             []*StateChange    `json:"state_history"`
}

// MarshalJSON 按类别序列化扩展
func (p *Phase) MarshalJSON() ([]byte, error) {
	var ext interface{}
	switch p.Category {
	case CategoryQuestionnaire:
		ext = p.Questionnaire
	case CategoryDocumentation:
		ext = p.Documentation
	case CategoryPayment:
		ext = p.Payment
	case CategoryGate:
		ext = p.Gate
	default:
		return nil, fmt.Errorf("phase %s: unknown category %s", p.ID, p.Category)
	}
	if ext == nil {
		return nil, fmt.Errorf("phase %s: missing %s extension", p.ID, p.Category)
	}

	extData, err := json.Marshal(ext)
	if err != nil {
		return nil, err
	}

	return json.Marshal(&phaseJSON{
		ID:                       p.ID,
		ApplicationID:            p.ApplicationID,
		Name:                     p.Name,
		Order:                    p.Order,
		Category:                 p.Category,
		Status:                   p.Status,
		RequiresPreviousComplete: p.RequiresPreviousComplete,
		ActivatedAt:              p.ActivatedAt,
		CompletedAt:              p.CompletedAt,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
		Ext:                      extData,
		StateHistory:             p.StateHistory,
	})
}

// UnmarshalJSON 按类别反序列化扩展
func (p *Phase) UnmarshalJSON(data []byte) error {
	var pj phaseJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}

	p.ID = pj.ID
	p.ApplicationID = pj.ApplicationID
	p.Name = pj.Name
	p.Order = pj.Order
	p.Category = pj.Category
	p.Status = pj.Status
	p.RequiresPreviousComplete = pj.RequiresPreviousComplete
	p.ActivatedAt = pj.ActivatedAt
	p.CompletedAt = pj.CompletedAt
	p.CreatedAt = pj.CreatedAt
	p.UpdatedAt = pj.UpdatedAt
	p.StateHistory = pj.StateHistory

	switch pj.Category {
	case CategoryQuestionnaire:
		p.Questionnaire = &QuestionnaireExt{}
		return json.Unmarshal(pj.Ext, p.Questionnaire)
	case CategoryDocumentation:
		p.Documentation = &DocumentationExt{}
		return json.Unmarshal(pj.Ext, p.Documentation)
	case CategoryPayment:
		p.Payment = &PaymentExt{}
		return json.Unmarshal(pj.Ext, p.Payment)
	case CategoryGate:
		p.Gate = &GateExt{}
		return json.Unmarshal(pj.Ext, p.Gate)
	}
	return fmt.Errorf("phase %s: unknown category %s", pj.ID, pj.Category)
}

// Validate 校验阶段与扩展的一致性
func (p *Phase) Validate() error {
	if p.ID == "" {
		return NewValidationError("id", "phase ID is required")
	}
	if p.ApplicationID == "" {
		return NewValidationError("application_id", "application ID is required")
	}
	if p.Order < 1 {
		return NewValidationError("order", "phase order must start at 1")
	}

	attached := 0
	if p.Questionnaire != nil {
		attached++
	}
	if p.Documentation != nil {
		attached++
	}
	if p.Payment != nil {
		attached++
	}
	if p.Gate != nil {
		attached++
	}
	if attached != 1 {
		return NewValidationError("category", fmt.Sprintf("phase must carry exactly one extension, got %d", attached))
	}

	consistent := false
	switch p.Category {
	case CategoryQuestionnaire:
		consistent = p.Questionnaire != nil
	case CategoryDocumentation:
		consistent = p.Documentation != nil
	case CategoryPayment:
		consistent = p.Payment != nil
	case CategoryGate:
		consistent = p.Gate != nil
	default:
		return NewValidationError("category", fmt.Sprintf("unknown phase category: %s", p.Category))
	}
	if !consistent {
		return NewValidationError("category", fmt.Sprintf("extension does not match category %s", p.Category))
	}
	return nil
}

// AddStateChange 追加一条状态变更记录
func (p *Phase) AddStateChange(from, to Status, reason, operator string, at time.Time) {
	p.StateHistory = append(p.StateHistory, &StateChange{
		From:     from,
		To:       to,
		Reason:   reason,
		Operator: operator,
		Time:     at,
	})
}
