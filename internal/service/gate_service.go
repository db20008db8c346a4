package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"gorm.io/gorm"
)

// GateService 审批门服务接口
type GateService interface {
	PerformAction(ctx context.Context, actor Actor, applicationID, phaseID, stepID string, req *GateActionRequest) error
}

// GateActionRequest 审批门动作请求
// @Description 执行审批门动作的请求参数
type GateActionRequest struct {
	Action  string `json:"action" example:"APPROVE" binding:"required"` // APPROVE/REJECT/ACKNOWLEDGE/CONFIRM/CONSENT
	Comment string `json:"comment" example:"同意放款"`                      // 动作说明
}

// gateService 审批门服务实现
type gateService struct {
	db          *gorm.DB
	lc          *lifecycle
	auditLogSvc AuditLogService
}

// NewGateService 创建审批门服务
func NewGateService(db *gorm.DB, dispatcher *integration.Dispatcher, auditLogSvc AuditLogService) GateService {
	return &gateService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		auditLogSvc: auditLogSvc,
	}
}

// PerformAction 执行审批门动作
// REJECT 使审批门停摆,需管理员介入(跳过阶段或取消申请);
// 其余动作完成对应步骤,全部步骤完成后阶段完成并级联
func (s *gateService) PerformAction(ctx context.Context, actor Actor, applicationID, phaseID, stepID string, req *GateActionRequest) error {
	action, err := phase.ParseGateAction(req.Action)
	if err != nil {
		return err
	}

	now := time.Now()
	var events []*integration.Event

	err = s.db.Transaction(func(tx *gorm.DB) error {
		app, err := loadApplicationTx(tx, applicationID)
		if err != nil {
			return err
		}
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err := phaseByID(phases, phaseID)
		if err != nil {
			return err
		}
		ext, err := gateExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusInProgress {
			return phase.NewInvalidTransition("phase", string(target.Status), "gate action", "phase must be IN_PROGRESS")
		}
		if ext.Halted {
			return phase.NewConflict("gate is halted by a rejection and requires admin intervention")
		}
		if !ext.ActionAllowed(action) {
			return phase.NewValidationError("action", fmt.Sprintf("action %s is not allowed on this gate", action))
		}

		step, err := ext.StepByID(stepID)
		if err != nil {
			return err
		}
		if step.Completed {
			return phase.NewConflict(fmt.Sprintf("gate step %s is already completed", step.Name))
		}
		if !actor.IsAdmin && actor.PartyType != step.OrgType {
			return phase.NewForbidden(fmt.Sprintf("gate step %s awaits a %s decision", step.Name, step.OrgType))
		}

		ext.Decisions = append(ext.Decisions, phase.GateDecision{
			StepID:  stepID,
			Action:  action,
			Actor:   actor.UserID,
			Comment: req.Comment,
			Time:    now,
		})

		if action == phase.GateActionReject {
			ext.Halted = true
			target.UpdatedAt = now
			return savePhase(tx, target)
		}

		step.Completed = true
		target.UpdatedAt = now
		if !ext.AllStepsCompleted() {
			return savePhase(tx, target)
		}

		more, err := s.lc.completeAndCascade(tx, app, phases, target, actor.UserID, now)
		if err != nil {
			return err
		}
		events = append(events, more...)
		return nil
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "gate_action", model.AuditResourcePhase, phaseID,
			map[string]string{"step_id": stepID, "action": req.Action, "comment": req.Comment})
	}
	return nil
}

// gateExt 取出阶段的审批门扩展
func gateExt(ph *phase.Phase) (*phase.GateExt, error) {
	if ph.Category != phase.CategoryGate || ph.Gate == nil {
		return nil, phase.NewInvalidTransition("phase", string(ph.Status), "gate action",
			fmt.Sprintf("phase %s is not a GATE phase", ph.ID))
	}
	return ph.Gate, nil
}
