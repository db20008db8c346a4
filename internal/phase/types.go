package phase

import "fmt"

// ApplicationStatus 申请状态
type ApplicationStatus string

const (
	ApplicationStatusDraft      ApplicationStatus = "DRAFT"
	ApplicationStatusPending    ApplicationStatus = "PENDING"
	ApplicationStatusActive     ApplicationStatus = "ACTIVE"
	ApplicationStatusCompleted  ApplicationStatus = "COMPLETED"
	ApplicationStatusCancelled  ApplicationStatus = "CANCELLED"
	ApplicationStatusTerminated ApplicationStatus = "TERMINATED"
)

// IsTerminal 判断申请状态是否为终态
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusCompleted || s == ApplicationStatusCancelled || s == ApplicationStatusTerminated
}

// Status 阶段状态
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusCompleted        Status = "COMPLETED"
	StatusSkipped          Status = "SKIPPED"
)

// IsTerminal 判断阶段状态是否为终态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Category 阶段类别
type Category string

const (
	CategoryQuestionnaire Category = "QUESTIONNAIRE"
	CategoryDocumentation Category = "DOCUMENTATION"
	CategoryPayment       Category = "PAYMENT"
	CategoryGate          Category = "GATE"
)

// ParseCategory 解析阶段类别
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryQuestionnaire, CategoryDocumentation, CategoryPayment, CategoryGate:
		return Category(s), nil
	}
	return "", NewValidationError("category", fmt.Sprintf("unknown phase category: %s", s))
}

// OrgType 参与方组织类型
// 在请求边界解析一次,引擎内部只传递类型值
type OrgType string

const (
	OrgTypeCustomer  OrgType = "CUSTOMER"
	OrgTypeDeveloper OrgType = "DEVELOPER"
	OrgTypeBank      OrgType = "BANK"
	OrgTypePlatform  OrgType = "PLATFORM"
)

// AllOrgTypes 所有组织类型,按固定顺序
func AllOrgTypes() []OrgType {
	return []OrgType{OrgTypeCustomer, OrgTypeDeveloper, OrgTypeBank, OrgTypePlatform}
}

// ParseOrgType 解析组织类型
func ParseOrgType(s string) (OrgType, error) {
	switch OrgType(s) {
	case OrgTypeCustomer, OrgTypeDeveloper, OrgTypeBank, OrgTypePlatform:
		return OrgType(s), nil
	}
	return "", NewValidationError("organizationTypeCode", fmt.Sprintf("unknown organization type: %s", s))
}

// DocumentStatus 文档状态
type DocumentStatus string

const (
	DocumentStatusPending          DocumentStatus = "PENDING"
	DocumentStatusApproved         DocumentStatus = "APPROVED"
	DocumentStatusRejected         DocumentStatus = "REJECTED"
	DocumentStatusChangesRequested DocumentStatus = "CHANGES_REQUESTED"
	DocumentStatusReverted         DocumentStatus = "REVERTED"
)

// ParseReviewDecision 解析文档审核决定(只允许三种审核结果)
func ParseReviewDecision(s string) (DocumentStatus, error) {
	switch DocumentStatus(s) {
	case DocumentStatusApproved, DocumentStatusRejected, DocumentStatusChangesRequested:
		return DocumentStatus(s), nil
	}
	return "", NewValidationError("decision", fmt.Sprintf("unknown review decision: %s", s))
}

// StageStatus 审批环节状态
type StageStatus string

const (
	StageStatusPending    StageStatus = "PENDING"
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusCompleted  StageStatus = "COMPLETED"
)

// RejectionPolicy 审核拒绝后的处理策略
type RejectionPolicy string

const (
	// RejectionCascadeBack 回退到最早需要重新提交的环节
	RejectionCascadeBack RejectionPolicy = "CASCADE_BACK"
	// RejectionHoldStage 停留在当前环节等待重新上传
	RejectionHoldStage RejectionPolicy = "HOLD_STAGE"
)

// GateAction 审批门动作
type GateAction string

const (
	GateActionApprove     GateAction = "APPROVE"
	GateActionReject      GateAction = "REJECT"
	GateActionAcknowledge GateAction = "ACKNOWLEDGE"
	GateActionConfirm     GateAction = "CONFIRM"
	GateActionConsent     GateAction = "CONSENT"
)

// ParseGateAction 解析审批门动作
func ParseGateAction(s string) (GateAction, error) {
	switch GateAction(s) {
	case GateActionApprove, GateActionReject, GateActionAcknowledge, GateActionConfirm, GateActionConsent:
		return GateAction(s), nil
	}
	return "", NewValidationError("action", fmt.Sprintf("unknown gate action: %s", s))
}

// ReviewDecision 问卷审核决定
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "APPROVE"
	ReviewDecisionReject  ReviewDecision = "REJECT"
)

// EventType 领域事件类型
type EventType string

const (
	EventPhaseActivated       EventType = "PHASE.ACTIVATED"
	EventPhaseCompleted       EventType = "PHASE.COMPLETED"
	EventPhaseSkipped         EventType = "PHASE.SKIPPED"
	EventPhaseReopened        EventType = "PHASE.REOPENED"
	EventDocumentUploaded     EventType = "DOCUMENT.UPLOADED"
	EventDocumentReviewed     EventType = "DOCUMENT.REVIEWED"
	EventDocumentReverted     EventType = "DOCUMENT.REVERTED"
	EventPaymentRecorded      EventType = "PAYMENT.RECORDED"
	EventApplicationCompleted EventType = "APPLICATION.COMPLETED"
	EventApplicationCancelled EventType = "APPLICATION.CANCELLED"
)

// BindingStatus 组织绑定状态
type BindingStatus string

const (
	BindingStatusPending   BindingStatus = "PENDING"
	BindingStatusActive    BindingStatus = "ACTIVE"
	BindingStatusCompleted BindingStatus = "COMPLETED"
	BindingStatusWithdrawn BindingStatus = "WITHDRAWN"
)
