package service

import (
	"errors"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"gorm.io/gorm"
)

// lifecycle 阶段生命周期引擎
// 封装各阶段服务共享的流转逻辑: 完成后的自动激活级联、
// 申请聚合状态推导、事务内事件落库
// 所有方法都在调用方的事务内执行,事件在提交后由调用方 Notify
type lifecycle struct {
	sm         *phase.StateMachine
	dispatcher *integration.Dispatcher
}

// newLifecycle 创建生命周期引擎
func newLifecycle(dispatcher *integration.Dispatcher) *lifecycle {
	return &lifecycle{
		sm:         phase.NewStateMachine(),
		dispatcher: dispatcher,
	}
}

// loadPhasesForUpdate 在事务内加行锁读取申请的全部阶段,按 order 升序
func loadPhasesForUpdate(tx *gorm.DB, applicationID string) ([]*phase.Phase, error) {
	phases, err := repository.NewPhaseRepository(tx).FindByApplicationForUpdate(applicationID)
	if err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, phase.NewNotFound("application", applicationID)
	}
	return phases, nil
}

// phaseByID 从有序阶段列表中定位目标阶段
func phaseByID(phases []*phase.Phase, phaseID string) (*phase.Phase, error) {
	for _, ph := range phases {
		if ph.ID == phaseID {
			return ph, nil
		}
	}
	return nil, phase.NewNotFound("phase", phaseID)
}

// phaseByOrder 按序号定位阶段,不存在返回 nil
func phaseByOrder(phases []*phase.Phase, order int) *phase.Phase {
	for _, ph := range phases {
		if ph.Order == order {
			return ph
		}
	}
	return nil
}

// savePhase 在事务内保存阶段
func savePhase(tx *gorm.DB, ph *phase.Phase) error {
	return repository.NewPhaseRepository(tx).Save(ph)
}

// record 在事务内落库一条领域事件
func (l *lifecycle) record(tx *gorm.DB, evtType phase.EventType, applicationID, phaseID string, payload interface{}) (*integration.Event, error) {
	if l.dispatcher == nil {
		return nil, nil
	}
	return l.dispatcher.Record(tx, evtType, applicationID, phaseID, payload)
}

// notify 事务提交后推送事件
func (l *lifecycle) notify(events []*integration.Event) {
	if l.dispatcher == nil {
		return
	}
	for _, evt := range events {
		if evt != nil {
			l.dispatcher.Notify(evt)
		}
	}
}

// activate 激活单个阶段并落库事件
func (l *lifecycle) activate(tx *gorm.DB, phases []*phase.Phase, target *phase.Phase, operator string, now time.Time) (*integration.Event, error) {
	prev := phaseByOrder(phases, target.Order-1)
	if err := l.sm.Activate(target, prev, operator, now); err != nil {
		return nil, err
	}
	if err := savePhase(tx, target); err != nil {
		return nil, err
	}
	metrics.RecordPhaseTransition(string(target.Category), "activate")
	return l.record(tx, phase.EventPhaseActivated, target.ApplicationID, target.ID, map[string]interface{}{
		"order":    target.Order,
		"category": target.Category,
	})
}

// cascade 阶段进入终态后的级联处理
// 自动激活 order 更高的第一个满足前置条件的 PENDING 阶段;
// 若全部阶段均为终态,申请转为 COMPLETED
func (l *lifecycle) cascade(tx *gorm.DB, app *model.ApplicationModel, phases []*phase.Phase, fromOrder int, operator string, now time.Time) ([]*integration.Event, error) {
	var events []*integration.Event

	for _, ph := range phases {
		if ph.Order <= fromOrder || ph.Status != phase.StatusPending {
			continue
		}
		prev := phaseByOrder(phases, ph.Order-1)
		if ph.RequiresPreviousComplete && prev != nil && !prev.Status.IsTerminal() {
			continue
		}
		evt, err := l.activate(tx, phases, ph, operator, now)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
		break
	}

	allTerminal := true
	for _, ph := range phases {
		if !ph.Status.IsTerminal() {
			allTerminal = false
			break
		}
	}
	if allTerminal {
		app.Status = string(phase.ApplicationStatusCompleted)
		app.CompletedAt = &now
		app.UpdatedAt = now
		if err := tx.Save(app).Error; err != nil {
			return nil, err
		}
		evt, err := l.record(tx, phase.EventApplicationCompleted, app.ID, "", nil)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}

	return events, nil
}

// completeAndCascade 完成目标阶段并执行级联
func (l *lifecycle) completeAndCascade(tx *gorm.DB, app *model.ApplicationModel, phases []*phase.Phase, target *phase.Phase, operator string, now time.Time) ([]*integration.Event, error) {
	if err := l.sm.Complete(target, operator, now); err != nil {
		return nil, err
	}
	if err := savePhase(tx, target); err != nil {
		return nil, err
	}
	metrics.RecordPhaseTransition(string(target.Category), "complete")

	evt, err := l.record(tx, phase.EventPhaseCompleted, app.ID, target.ID, map[string]interface{}{
		"order":    target.Order,
		"category": target.Category,
	})
	if err != nil {
		return nil, err
	}

	events := []*integration.Event{evt}
	more, err := l.cascade(tx, app, phases, target.Order, operator, now)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// cancelApplication 取消申请并落库事件
func (l *lifecycle) cancelApplication(tx *gorm.DB, app *model.ApplicationModel, status phase.ApplicationStatus, reason string, now time.Time) (*integration.Event, error) {
	app.Status = string(status)
	app.UpdatedAt = now
	if err := tx.Save(app).Error; err != nil {
		return nil, err
	}
	return l.record(tx, phase.EventApplicationCancelled, app.ID, "", map[string]interface{}{
		"status": status,
		"reason": reason,
	})
}

// loadApplicationTx 在事务内读取申请
func loadApplicationTx(tx *gorm.DB, applicationID string) (*model.ApplicationModel, error) {
	app, err := repository.NewApplicationRepository(tx).FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewNotFound("application", applicationID)
		}
		return nil, err
	}
	return app, nil
}
