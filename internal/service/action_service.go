package service

import (
	"errors"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"gorm.io/gorm"
)

// 各参与方的下一步动作
const (
	ActionNone          = "NONE"            // 无事可做
	ActionComplete      = "COMPLETE"        // 申请已全部完成
	ActionWait          = "WAIT"            // 轮到其他参与方
	ActionUpload        = "UPLOAD"          // 需上传文档
	ActionReview        = "REVIEW"          // 需审核
	ActionQuestionnaire = "QUESTIONNAIRE"   // 需填写问卷
	ActionWaitForReview = "WAIT_FOR_REVIEW" // 已提交,等待审核
	ActionPayment       = "PAYMENT"         // 需付款
)

// PartyAction 单个参与方的动作
type PartyAction struct {
	Action               string   `json:"action"`
	PendingDocumentTypes []string `json:"pending_document_types,omitempty"` // UPLOAD 时的待传文档类型
}

// CurrentActionView 当前动作视图
// 包含全参与方动作矩阵和调用方自己的便捷视图
type CurrentActionView struct {
	ApplicationID        string                        `json:"application_id"`
	ApplicationStatus    phase.ApplicationStatus       `json:"application_status"`
	CurrentPhaseID       string                        `json:"current_phase_id,omitempty"`
	CurrentPhaseOrder    int                           `json:"current_phase_order,omitempty"`
	CurrentPhaseCategory phase.Category                `json:"current_phase_category,omitempty"`
	PartyActions         map[phase.OrgType]PartyAction `json:"party_actions"`
	CallerPartyType      phase.OrgType                 `json:"caller_party_type"`
	CallerAction         PartyAction                   `json:"caller_action"`
	CanCurrentUserAct    bool                          `json:"can_current_user_act"`
}

// ActionService 当前动作解析服务接口
// 纯读取,给定持久化状态计算各参与方的下一步动作,不产生任何写入,
// 客户端可以任意频率轮询
type ActionService interface {
	Resolve(applicationID string, callerParty phase.OrgType) (*CurrentActionView, error)
}

// actionService 当前动作解析服务实现
type actionService struct {
	db *gorm.DB
}

// NewActionService 创建当前动作解析服务
func NewActionService(db *gorm.DB) ActionService {
	return &actionService{db: db}
}

// Resolve 计算当前动作
// "无事可做"不是错误: 申请已结束返回 COMPLETE/NONE,轮到别人返回 WAIT
func (s *actionService) Resolve(applicationID string, callerParty phase.OrgType) (*CurrentActionView, error) {
	app, err := repository.NewApplicationRepository(s.db).FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, phase.NewNotFound("application", applicationID)
		}
		return nil, err
	}

	view := &CurrentActionView{
		ApplicationID:     applicationID,
		ApplicationStatus: phase.ApplicationStatus(app.Status),
		CallerPartyType:   callerParty,
		PartyActions:      make(map[phase.OrgType]PartyAction),
	}

	if view.ApplicationStatus.IsTerminal() {
		action := ActionNone
		if view.ApplicationStatus == phase.ApplicationStatusCompleted {
			action = ActionComplete
		}
		s.fill(view, func(phase.OrgType) PartyAction { return PartyAction{Action: action} })
		return view, nil
	}

	phases, err := repository.NewPhaseRepository(s.db).FindByApplication(applicationID)
	if err != nil {
		return nil, err
	}

	// 最早的非终态阶段
	var current *phase.Phase
	for _, ph := range phases {
		if !ph.Status.IsTerminal() {
			current = ph
			break
		}
	}
	if current == nil {
		s.fill(view, func(phase.OrgType) PartyAction { return PartyAction{Action: ActionComplete} })
		return view, nil
	}

	view.CurrentPhaseID = current.ID
	view.CurrentPhaseOrder = current.Order
	view.CurrentPhaseCategory = current.Category

	// 未激活的阶段对所有参与方都是等待
	if current.Status == phase.StatusPending {
		s.fill(view, func(phase.OrgType) PartyAction { return PartyAction{Action: ActionWait} })
		return view, nil
	}

	switch current.Category {
	case phase.CategoryQuestionnaire:
		s.resolveQuestionnaire(view, current)
	case phase.CategoryDocumentation:
		if err := s.resolveDocumentation(view, current); err != nil {
			return nil, err
		}
	case phase.CategoryPayment:
		s.fill(view, func(party phase.OrgType) PartyAction {
			if party == phase.OrgTypeCustomer {
				return PartyAction{Action: ActionPayment}
			}
			return PartyAction{Action: ActionWait}
		})
	case phase.CategoryGate:
		s.resolveGate(view, current)
	}
	return view, nil
}

// resolveQuestionnaire 问卷阶段: 购房人填写,提交后平台审核
func (s *actionService) resolveQuestionnaire(view *CurrentActionView, current *phase.Phase) {
	if current.Status == phase.StatusAwaitingApproval {
		s.fill(view, func(party phase.OrgType) PartyAction {
			switch party {
			case phase.OrgTypePlatform:
				return PartyAction{Action: ActionReview}
			case phase.OrgTypeCustomer:
				return PartyAction{Action: ActionWaitForReview}
			}
			return PartyAction{Action: ActionWait}
		})
		return
	}
	s.fill(view, func(party phase.OrgType) PartyAction {
		if party == phase.OrgTypeCustomer {
			return PartyAction{Action: ActionQuestionnaire}
		}
		return PartyAction{Action: ActionWait}
	})
}

// resolveDocumentation 文档阶段: 当前环节的组织类型上传或审核,其余等待
func (s *actionService) resolveDocumentation(view *CurrentActionView, current *phase.Phase) error {
	ext := current.Documentation
	stage, err := ext.CurrentStage()
	if err != nil {
		return err
	}
	docs, err := repository.NewDocumentRepository(s.db).FindByPhase(current.ID)
	if err != nil {
		return err
	}

	byType := make(map[string]*model.DocumentModel, len(docs))
	for _, d := range docs {
		byType[d.DocumentType] = d
	}

	var pendingUpload, pendingReview []string
	for _, docType := range ext.RequiredTypesFor(stage.OrgType) {
		doc, ok := byType[docType]
		switch {
		case !ok,
			doc.Status == string(phase.DocumentStatusRejected),
			doc.Status == string(phase.DocumentStatusChangesRequested):
			pendingUpload = append(pendingUpload, docType)
		case doc.Status == string(phase.DocumentStatusPending):
			pendingReview = append(pendingReview, docType)
		}
	}

	s.fill(view, func(party phase.OrgType) PartyAction {
		if party != stage.OrgType {
			return PartyAction{Action: ActionWait}
		}
		if len(pendingUpload) > 0 {
			return PartyAction{Action: ActionUpload, PendingDocumentTypes: pendingUpload}
		}
		if len(pendingReview) > 0 {
			return PartyAction{Action: ActionReview, PendingDocumentTypes: pendingReview}
		}
		return PartyAction{Action: ActionNone}
	})
	return nil
}

// resolveGate 审批门阶段: 未完成步骤的归属方执行动作,停摆时平台介入
func (s *actionService) resolveGate(view *CurrentActionView, current *phase.Phase) {
	ext := current.Gate

	if ext.Halted {
		s.fill(view, func(party phase.OrgType) PartyAction {
			if party == phase.OrgTypePlatform {
				return PartyAction{Action: ActionReview}
			}
			return PartyAction{Action: ActionWait}
		})
		return
	}

	// 步骤归属方执行首个非 REJECT 的允许动作
	gateAction := string(phase.GateActionApprove)
	for _, a := range ext.AllowedActions {
		if a != phase.GateActionReject {
			gateAction = string(a)
			break
		}
	}

	awaiting := make(map[phase.OrgType]bool)
	for _, step := range ext.Steps {
		if !step.Completed {
			awaiting[step.OrgType] = true
		}
	}

	s.fill(view, func(party phase.OrgType) PartyAction {
		if awaiting[party] {
			return PartyAction{Action: gateAction}
		}
		return PartyAction{Action: ActionWait}
	})
}

// fill 为每个参与方类型填充动作矩阵并派生调用方视图
func (s *actionService) fill(view *CurrentActionView, resolve func(phase.OrgType) PartyAction) {
	for _, party := range phase.AllOrgTypes() {
		view.PartyActions[party] = resolve(party)
	}
	view.CallerAction = view.PartyActions[view.CallerPartyType]
	view.CanCurrentUserAct = actionable(view.CallerAction.Action)
}

// actionable 判断动作是否需要调用方亲自执行
func actionable(action string) bool {
	switch action {
	case ActionNone, ActionComplete, ActionWait, ActionWaitForReview:
		return false
	}
	return true
}
