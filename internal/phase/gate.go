package phase

import "time"

// GateStep 审批门步骤
type GateStep struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	OrgType   OrgType `json:"organization_type"`
	Completed bool    `json:"completed"`
}

// GateDecision 审批门决定记录,只追加
type GateDecision struct {
	StepID  string     `json:"step_id"`
	Action  GateAction `json:"action"`
	Actor   string     `json:"actor"`
	Comment string     `json:"comment,omitempty"`
	Time    time.Time  `json:"time"`
}

// GateExt GATE 阶段扩展
type GateExt struct {
	AllowedActions []GateAction   `json:"allowed_actions"`
	Steps          []GateStep     `json:"steps"`
	Decisions      []GateDecision `json:"decisions,omitempty"`
	// Halted 表示有步骤被拒绝,需要管理员介入(重开或终止)
	Halted bool `json:"halted"`
}

// ActionAllowed 判断动作是否在允许集合内
func (g *GateExt) ActionAllowed(action GateAction) bool {
	for _, a := range g.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// StepByID 按 ID 取步骤
func (g *GateExt) StepByID(stepID string) (*GateStep, error) {
	for i := range g.Steps {
		if g.Steps[i].ID == stepID {
			return &g.Steps[i], nil
		}
	}
	return nil, NewNotFound("gate step", stepID)
}

// AllStepsCompleted 判断所有步骤是否完成
func (g *GateExt) AllStepsCompleted() bool {
	for _, s := range g.Steps {
		if !s.Completed {
			return false
		}
	}
	return true
}
