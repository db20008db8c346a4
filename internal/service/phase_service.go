package service

import (
	"context"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"gorm.io/gorm"
)

// PhaseService 阶段生命周期服务接口
type PhaseService interface {
	Get(applicationID, phaseID string) (*phase.Phase, error)
	ListByApplication(applicationID string) ([]*phase.Phase, error)
	Activate(ctx context.Context, actor Actor, applicationID, phaseID string) error
	Skip(ctx context.Context, actor Actor, applicationID, phaseID, reason string) error
	Reopen(ctx context.Context, actor Actor, applicationID, phaseID string, req *ReopenRequest) error
}

// ReopenRequest 重开阶段请求
// @Description 重开已完成阶段的请求参数
type ReopenRequest struct {
	Reason               string `json:"reason" example:"资料需要补充"`                  // 重开原因
	ResetDependentPhases *bool  `json:"reset_dependent_phases" example:"true"` // 是否重置后续阶段,默认 true
}

// phaseService 阶段生命周期服务实现
type phaseService struct {
	db          *gorm.DB
	lc          *lifecycle
	auditLogSvc AuditLogService
}

// NewPhaseService 创建阶段生命周期服务
func NewPhaseService(db *gorm.DB, dispatcher *integration.Dispatcher, auditLogSvc AuditLogService) PhaseService {
	return &phaseService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		auditLogSvc: auditLogSvc,
	}
}

// Get 获取阶段详情
func (s *phaseService) Get(applicationID, phaseID string) (*phase.Phase, error) {
	ph, err := repository.NewPhaseRepository(s.db).FindByID(phaseID)
	if err != nil {
		return nil, phase.NewNotFound("phase", phaseID)
	}
	if ph.ApplicationID != applicationID {
		return nil, phase.NewNotFound("phase", phaseID)
	}
	return ph, nil
}

// ListByApplication 获取申请的全部阶段,按 order 升序
func (s *phaseService) ListByApplication(applicationID string) ([]*phase.Phase, error) {
	return repository.NewPhaseRepository(s.db).FindByApplication(applicationID)
}

// Activate 手动激活阶段: PENDING → IN_PROGRESS
func (s *phaseService) Activate(ctx context.Context, actor Actor, applicationID, phaseID string) error {
	now := time.Now()
	var events []*integration.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err := phaseByID(phases, phaseID)
		if err != nil {
			return err
		}

		evt, err := s.lc.activate(tx, phases, target, actor.UserID, now)
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "activate", phaseID, map[string]string{"application_id": applicationID})
	return nil
}

// Skip 跳过阶段,仅管理员;级联处理与完成一致
func (s *phaseService) Skip(ctx context.Context, actor Actor, applicationID, phaseID, reason string) error {
	if !actor.IsAdmin {
		return phase.NewForbidden("skipping a phase requires admin role")
	}

	now := time.Now()
	var events []*integration.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
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

		if err := s.lc.sm.Skip(target, actor.UserID, reason, now); err != nil {
			return err
		}
		if err := savePhase(tx, target); err != nil {
			return err
		}
		metrics.RecordPhaseTransition(string(target.Category), "skip")

		evt, err := s.lc.record(tx, phase.EventPhaseSkipped, applicationID, phaseID, map[string]interface{}{
			"order":  target.Order,
			"reason": reason,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)

		more, err := s.lc.cascade(tx, app, phases, target.Order, actor.UserID, now)
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
	s.audit(ctx, actor.UserID, "skip", phaseID, map[string]string{"application_id": applicationID, "reason": reason})
	return nil
}

// Reopen 重开已完成阶段,仅管理员
// resetDependentPhases 为 true 时把 order 更高的全部阶段无条件重置为 PENDING
func (s *phaseService) Reopen(ctx context.Context, actor Actor, applicationID, phaseID string, req *ReopenRequest) error {
	if !actor.IsAdmin {
		return phase.NewForbidden("reopening a phase requires admin role")
	}

	resetDependent := true
	if req.ResetDependentPhases != nil {
		resetDependent = *req.ResetDependentPhases
	}

	now := time.Now()
	var events []*integration.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
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

		if err := s.lc.sm.Reopen(target, actor.UserID, req.Reason, now); err != nil {
			return err
		}
		if err := savePhase(tx, target); err != nil {
			return err
		}
		metrics.RecordPhaseTransition(string(target.Category), "reopen")

		if resetDependent {
			for _, ph := range phases {
				if ph.Order <= target.Order || ph.Status == phase.StatusPending {
					continue
				}
				s.lc.sm.ResetToPending(ph, actor.UserID, "dependent phase reset by reopen", now)
				if err := savePhase(tx, ph); err != nil {
					return err
				}
			}
		}

		// 重开后申请回到进行中
		if phase.ApplicationStatus(app.Status) == phase.ApplicationStatusCompleted {
			app.Status = string(phase.ApplicationStatusActive)
			app.CompletedAt = nil
			app.UpdatedAt = now
			if err := tx.Save(app).Error; err != nil {
				return err
			}
		}

		evt, err := s.lc.record(tx, phase.EventPhaseReopened, applicationID, phaseID, map[string]interface{}{
			"order":                  target.Order,
			"reason":                 req.Reason,
			"reset_dependent_phases": resetDependent,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "reopen", phaseID, map[string]string{"application_id": applicationID, "reason": req.Reason})
	return nil
}

// audit 记录审计日志,失败只忽略不阻断
func (s *phaseService) audit(ctx context.Context, userID, action, phaseID string, details interface{}) {
	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, action, model.AuditResourcePhase, phaseID, details)
	}
}
