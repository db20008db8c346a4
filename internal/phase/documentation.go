package phase

import (
	"fmt"
	"time"
)

// DocumentDefinition 必交文档定义,激活时从付款计划快照而来
type DocumentDefinition struct {
	Type       string  `json:"type"`
	Label      string  `json:"label,omitempty"`
	UploadedBy OrgType `json:"uploaded_by"`
}

// ApprovalStage 有序审批环节,归属一个组织类型
type ApprovalStage struct {
	Order               int             `json:"order"`
	OrgType             OrgType         `json:"organization_type"`
	AutoTransition      bool            `json:"auto_transition"`
	WaitForAllDocuments bool            `json:"wait_for_all_documents"`
	OnRejection         RejectionPolicy `json:"on_rejection"`
}

// DocumentReviewEntry 文档审核轨迹条目
// 轨迹只追加,REVERTED 条目不会删除先前的 APPROVED 条目
type DocumentReviewEntry struct {
	Decision DocumentStatus `json:"decision"`
	OrgType  OrgType        `json:"organization_type"`
	Actor    string         `json:"actor"`
	Comment  string         `json:"comment,omitempty"`
	Time     time.Time      `json:"time"`
}

// StageProgress 环节进度记录
type StageProgress struct {
	StageOrder int         `json:"stage_order"`
	Status     StageStatus `json:"status"`
}

// DocumentationExt DOCUMENTATION 阶段扩展
type DocumentationExt struct {
	RequiredDocuments []DocumentDefinition `json:"required_documents"`
	Stages            []ApprovalStage      `json:"stages"`
	CurrentStageOrder int                  `json:"current_stage_order"`
	Progress          []StageProgress      `json:"progress"`
}

// InitProgress 初始化环节进度,第一个环节置为 IN_PROGRESS
func (d *DocumentationExt) InitProgress() {
	d.Progress = make([]StageProgress, 0, len(d.Stages))
	for i, stage := range d.Stages {
		status := StageStatusPending
		if i == 0 {
			status = StageStatusInProgress
			d.CurrentStageOrder = stage.Order
		}
		d.Progress = append(d.Progress, StageProgress{StageOrder: stage.Order, Status: status})
	}
}

// StageByOrder 按序号取环节
func (d *DocumentationExt) StageByOrder(order int) (*ApprovalStage, error) {
	for i := range d.Stages {
		if d.Stages[i].Order == order {
			return &d.Stages[i], nil
		}
	}
	return nil, NewNotFound("approval stage", fmt.Sprintf("order %d", order))
}

// CurrentStage 取当前环节
func (d *DocumentationExt) CurrentStage() (*ApprovalStage, error) {
	return d.StageByOrder(d.CurrentStageOrder)
}

// progressByOrder 按序号取进度记录
func (d *DocumentationExt) progressByOrder(order int) *StageProgress {
	for i := range d.Progress {
		if d.Progress[i].StageOrder == order {
			return &d.Progress[i]
		}
	}
	return nil
}

// SetStageStatus 设置环节进度状态
func (d *DocumentationExt) SetStageStatus(order int, status StageStatus) {
	if p := d.progressByOrder(order); p != nil {
		p.Status = status
	}
}

// StageStatusOf 读取环节进度状态
func (d *DocumentationExt) StageStatusOf(order int) StageStatus {
	if p := d.progressByOrder(order); p != nil {
		return p.Status
	}
	return StageStatusPending
}

// RequiredTypesFor 返回某组织类型需上传的文档类型
func (d *DocumentationExt) RequiredTypesFor(orgType OrgType) []string {
	var types []string
	for _, def := range d.RequiredDocuments {
		if def.UploadedBy == orgType {
			types = append(types, def.Type)
		}
	}
	return types
}

// DefinitionByType 按类型取文档定义
func (d *DocumentationExt) DefinitionByType(docType string) (*DocumentDefinition, error) {
	for i := range d.RequiredDocuments {
		if d.RequiredDocuments[i].Type == docType {
			return &d.RequiredDocuments[i], nil
		}
	}
	return nil, NewNotFound("document definition", docType)
}

// AllStagesCompleted 判断所有环节是否按序完成
func (d *DocumentationExt) AllStagesCompleted() bool {
	for _, stage := range d.Stages {
		if d.StageStatusOf(stage.Order) != StageStatusCompleted {
			return false
		}
	}
	return true
}

// NextStageOrder 返回当前环节之后的下一个环节序号,没有则返回 0
func (d *DocumentationExt) NextStageOrder() int {
	next := 0
	for _, stage := range d.Stages {
		if stage.Order > d.CurrentStageOrder {
			if next == 0 || stage.Order < next {
				next = stage.Order
			}
		}
	}
	return next
}

// AdvanceStage 完成当前环节并推进到下一环节
// 返回 true 表示已无后续环节,整个阶段的环节全部完成
func (d *DocumentationExt) AdvanceStage() bool {
	d.SetStageStatus(d.CurrentStageOrder, StageStatusCompleted)
	next := d.NextStageOrder()
	if next == 0 {
		return true
	}
	d.CurrentStageOrder = next
	d.SetStageStatus(next, StageStatusInProgress)
	return false
}

// CascadeBackTo 回退到指定环节,该环节及之后的进度重置
// 环节进度只能通过显式回退下降,正常流转单调不减
func (d *DocumentationExt) CascadeBackTo(order int) {
	for _, stage := range d.Stages {
		switch {
		case stage.Order < order:
			// 之前的环节保持完成状态
		case stage.Order == order:
			d.SetStageStatus(stage.Order, StageStatusInProgress)
		default:
			d.SetStageStatus(stage.Order, StageStatusPending)
		}
	}
	d.CurrentStageOrder = order
}

// EarliestStageFor 返回负责某组织类型文档的最早环节序号,没有则返回当前环节
func (d *DocumentationExt) EarliestStageFor(orgType OrgType) int {
	for _, stage := range d.Stages {
		if stage.OrgType == orgType {
			return stage.Order
		}
	}
	return d.CurrentStageOrder
}
