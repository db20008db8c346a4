package phase

import (
	"fmt"
	"time"
)

// StateMachine 阶段生命周期状态机
// PENDING → IN_PROGRESS → [AWAITING_APPROVAL 仅问卷] → COMPLETED | SKIPPED
// 类别相关的完成前置条件由各阶段服务校验,状态机只负责生命周期合法性
type StateMachine struct {
	transitions map[Status][]Status
}

// NewStateMachine 创建状态机
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[Status][]Status{
			StatusPending:          {StatusInProgress, StatusSkipped},
			StatusInProgress:       {StatusAwaitingApproval, StatusCompleted, StatusSkipped, StatusPending},
			StatusAwaitingApproval: {StatusCompleted, StatusInProgress, StatusSkipped, StatusPending},
			StatusCompleted:        {StatusInProgress},
			StatusSkipped:          {},
		},
	}
}

// CanTransition 判断状态流转是否合法
func (sm *StateMachine) CanTransition(from, to Status) bool {
	for _, allowed := range sm.transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Activate 激活阶段: PENDING → IN_PROGRESS
// prev 为紧邻的前一阶段,首个阶段传 nil
func (sm *StateMachine) Activate(p *Phase, prev *Phase, operator string, at time.Time) error {
	if p.Status != StatusPending {
		return NewInvalidTransition("phase", string(p.Status), "activate", "phase must be PENDING")
	}
	if p.RequiresPreviousComplete && prev != nil && !prev.Status.IsTerminal() {
		return NewInvalidTransition("phase", string(p.Status), "activate",
			fmt.Sprintf("preceding phase %d must be COMPLETED or SKIPPED, is %s", prev.Order, prev.Status))
	}

	p.AddStateChange(p.Status, StatusInProgress, "", operator, at)
	p.Status = StatusInProgress
	p.ActivatedAt = &at
	p.UpdatedAt = at
	return nil
}

// MarkAwaitingApproval 问卷提交后转入等待审核
func (sm *StateMachine) MarkAwaitingApproval(p *Phase, operator string, at time.Time) error {
	if p.Category != CategoryQuestionnaire {
		return NewInvalidTransition("phase", string(p.Status), "await approval", "only QUESTIONNAIRE phases await approval")
	}
	if p.Status != StatusInProgress && p.Status != StatusAwaitingApproval {
		return NewInvalidTransition("phase", string(p.Status), "await approval", "phase must be IN_PROGRESS")
	}

	if p.Status != StatusAwaitingApproval {
		p.AddStateChange(p.Status, StatusAwaitingApproval, "", operator, at)
		p.Status = StatusAwaitingApproval
	}
	p.UpdatedAt = at
	return nil
}

// Complete 完成阶段
func (sm *StateMachine) Complete(p *Phase, operator string, at time.Time) error {
	if p.Status != StatusInProgress && p.Status != StatusAwaitingApproval {
		return NewInvalidTransition("phase", string(p.Status), "complete", "phase must be IN_PROGRESS or AWAITING_APPROVAL")
	}

	p.AddStateChange(p.Status, StatusCompleted, "", operator, at)
	p.Status = StatusCompleted
	p.CompletedAt = &at
	p.UpdatedAt = at
	return nil
}

// Skip 跳过阶段,仅管理员,任何非终态阶段均可
func (sm *StateMachine) Skip(p *Phase, operator, reason string, at time.Time) error {
	if p.Status.IsTerminal() {
		return NewInvalidTransition("phase", string(p.Status), "skip", "phase is already terminal")
	}

	p.AddStateChange(p.Status, StatusSkipped, reason, operator, at)
	p.Status = StatusSkipped
	p.UpdatedAt = at
	return nil
}

// Reopen 重开已完成的阶段: COMPLETED → IN_PROGRESS,清除完成时间
func (sm *StateMachine) Reopen(p *Phase, operator, reason string, at time.Time) error {
	if p.Status != StatusCompleted {
		return NewInvalidTransition("phase", string(p.Status), "reopen", "only COMPLETED phases can be reopened")
	}

	p.AddStateChange(p.Status, StatusInProgress, reason, operator, at)
	p.Status = StatusInProgress
	p.CompletedAt = nil
	p.UpdatedAt = at
	return nil
}

// ResetToPending 级联重置后续阶段时使用,无条件回到 PENDING
func (sm *StateMachine) ResetToPending(p *Phase, operator, reason string, at time.Time) {
	if p.Status == StatusPending {
		return
	}
	p.AddStateChange(p.Status, StatusPending, reason, operator, at)
	p.Status = StatusPending
	p.ActivatedAt = nil
	p.CompletedAt = nil
	p.UpdatedAt = at
}
