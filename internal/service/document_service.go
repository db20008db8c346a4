package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentService 文档审核服务接口
type DocumentService interface {
	Upload(ctx context.Context, actor Actor, applicationID, phaseID string, req *UploadDocumentRequest) (*model.DocumentModel, error)
	Review(ctx context.Context, actor Actor, applicationID, documentID string, req *ReviewDocumentRequest) error
	Revert(ctx context.Context, actor Actor, applicationID, documentID string, req *RevertDocumentRequest) error
	ListByApplication(applicationID string) ([]*model.DocumentModel, error)
	History(documentID string) ([]phase.DocumentReviewEntry, error)
}

// UploadDocumentRequest 上传文档请求
// @Description 上传申请文档的请求参数
type UploadDocumentRequest struct {
	DocumentType string `json:"document_type" example:"BANK_STATEMENT" binding:"required"` // 文档类型
	URL          string `json:"url" example:"https://files.example.com/doc.pdf" binding:"required"` // 文档地址
	UploadedBy   string `json:"uploaded_by" example:"CUSTOMER" binding:"required"`         // 上传方组织类型
}

// ReviewDocumentRequest 审核文档请求
// @Description 审核申请文档的请求参数
type ReviewDocumentRequest struct {
	Decision             string `json:"decision" example:"APPROVED" binding:"required"` // APPROVED/REJECTED/CHANGES_REQUESTED
	OrganizationTypeCode string `json:"organization_type_code" example:"BANK" binding:"required"` // 审核方组织类型
	Comment              string `json:"comment" example:"流水完整"` // 审核意见
}

// RevertDocumentRequest 撤销文档批准请求
// @Description 撤销已批准文档的请求参数
type RevertDocumentRequest struct {
	Reason               string `json:"reason" example:"文件版本错误" binding:"required"` // 撤销原因
	OrganizationTypeCode string `json:"organization_type_code" example:"PLATFORM"`  // 撤销方组织类型
}

// documentService 文档审核服务实现
type documentService struct {
	db          *gorm.DB
	lc          *lifecycle
	auditLogSvc AuditLogService
}

// NewDocumentService 创建文档审核服务
func NewDocumentService(db *gorm.DB, dispatcher *integration.Dispatcher, auditLogSvc AuditLogService) DocumentService {
	return &documentService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		auditLogSvc: auditLogSvc,
	}
}

// Upload 上传(或重新上传)文档
// 当前环节为自动流转且文档归属该环节时,上传即自动批准并推进环节;
// 归属后续环节的文档照常接收,但不推进当前环节
func (s *documentService) Upload(ctx context.Context, actor Actor, applicationID, phaseID string, req *UploadDocumentRequest) (*model.DocumentModel, error) {
	uploadedBy, err := phase.ParseOrgType(req.UploadedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var events []*integration.Event
	var doc *model.DocumentModel

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
		ext, err := documentationExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusInProgress {
			return phase.NewInvalidTransition("phase", string(target.Status), "upload document", "phase must be IN_PROGRESS")
		}

		def, err := ext.DefinitionByType(req.DocumentType)
		if err != nil {
			return err
		}
		if def.UploadedBy != uploadedBy {
			return phase.NewValidationError("uploaded_by",
				fmt.Sprintf("document %s must be uploaded by %s", def.Type, def.UploadedBy))
		}

		docRepo := repository.NewDocumentRepository(tx)
		doc, err = docRepo.FindByPhaseAndType(phaseID, req.DocumentType)
		switch {
		case err == nil:
			if doc.Status == string(phase.DocumentStatusApproved) {
				return phase.NewConflict(fmt.Sprintf("document %s is already approved", req.DocumentType))
			}
			doc.URL = req.URL
			doc.UploaderID = actor.UserID
			doc.Status = string(phase.DocumentStatusPending)
			doc.UpdatedAt = now
		case errors.Is(err, gorm.ErrRecordNotFound):
			doc = &model.DocumentModel{
				ID:            uuid.New().String(),
				ApplicationID: applicationID,
				PhaseID:       phaseID,
				DocumentType:  req.DocumentType,
				URL:           req.URL,
				UploadedBy:    string(uploadedBy),
				UploaderID:    actor.UserID,
				Status:        string(phase.DocumentStatusPending),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
		default:
			return err
		}

		evt, err := s.lc.record(tx, phase.EventDocumentUploaded, applicationID, phaseID, map[string]interface{}{
			"document_id":   doc.ID,
			"document_type": doc.DocumentType,
			"uploaded_by":   uploadedBy,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)

		// 自动流转环节: 当前环节归属上传方时上传即批准
		stage, err := ext.CurrentStage()
		if err != nil {
			return err
		}
		if stage.OrgType == uploadedBy && stage.AutoTransition {
			if err := appendReviewEntry(doc, phase.DocumentReviewEntry{
				Decision: phase.DocumentStatusApproved,
				OrgType:  stage.OrgType,
				Actor:    "system",
				Comment:  "auto-approved on upload",
				Time:     now,
			}); err != nil {
				return err
			}
			doc.Status = string(phase.DocumentStatusApproved)
		}
		if err := docRepo.Save(doc); err != nil {
			return err
		}

		if doc.Status == string(phase.DocumentStatusApproved) {
			more, err := s.advanceIfSatisfied(tx, app, phases, target, ext, now)
			if err != nil {
				return err
			}
			events = append(events, more...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "upload", doc.ID, map[string]string{"phase_id": phaseID, "document_type": req.DocumentType})
	return doc, nil
}

// Review 审核文档
// APPROVED 可能满足并推进当前环节;REJECTED/CHANGES_REQUESTED 触发环节的拒绝策略
func (s *documentService) Review(ctx context.Context, actor Actor, applicationID, documentID string, req *ReviewDocumentRequest) error {
	decision, err := phase.ParseReviewDecision(req.Decision)
	if err != nil {
		return err
	}
	reviewerOrg, err := phase.ParseOrgType(req.OrganizationTypeCode)
	if err != nil {
		return err
	}

	now := time.Now()
	var events []*integration.Event

	err = s.db.Transaction(func(tx *gorm.DB) error {
		docRepo := repository.NewDocumentRepository(tx)
		doc, err := docRepo.FindByID(documentID)
		if err != nil {
			return phase.NewNotFound("document", documentID)
		}
		if doc.ApplicationID != applicationID {
			return phase.NewNotFound("document", documentID)
		}

		app, err := loadApplicationTx(tx, applicationID)
		if err != nil {
			return err
		}
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err := phaseByID(phases, doc.PhaseID)
		if err != nil {
			return err
		}
		ext, err := documentationExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusInProgress {
			return phase.NewInvalidTransition("phase", string(target.Status), "review document", "phase must be IN_PROGRESS")
		}

		stage, err := ext.CurrentStage()
		if err != nil {
			return err
		}
		if !actor.IsAdmin && reviewerOrg != stage.OrgType {
			return phase.NewForbidden(fmt.Sprintf("current stage awaits a %s decision", stage.OrgType))
		}
		if phase.OrgType(doc.UploadedBy) != stage.OrgType {
			return phase.NewInvalidTransition("document", doc.Status, "review",
				"document is not owed to the current approval stage")
		}
		if doc.Status != string(phase.DocumentStatusPending) {
			return phase.NewInvalidTransition("document", doc.Status, "review", "document must be PENDING")
		}

		if err := appendReviewEntry(doc, phase.DocumentReviewEntry{
			Decision: decision,
			OrgType:  reviewerOrg,
			Actor:    actor.UserID,
			Comment:  req.Comment,
			Time:     now,
		}); err != nil {
			return err
		}
		doc.Status = string(decision)
		doc.UpdatedAt = now
		if err := docRepo.Save(doc); err != nil {
			return err
		}
		metrics.RecordDocumentReview(string(decision))

		evt, err := s.lc.record(tx, phase.EventDocumentReviewed, applicationID, doc.PhaseID, map[string]interface{}{
			"document_id": doc.ID,
			"decision":    decision,
			"reviewer":    actor.UserID,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)

		if decision == phase.DocumentStatusApproved {
			more, err := s.advanceIfSatisfied(tx, app, phases, target, ext, now)
			if err != nil {
				return err
			}
			events = append(events, more...)
			return nil
		}

		// 拒绝策略
		if stage.OnRejection == phase.RejectionCascadeBack {
			backOrder := ext.EarliestStageFor(phase.OrgType(doc.UploadedBy))
			ext.CascadeBackTo(backOrder)
			if err := s.resetStageDocuments(tx, doc.PhaseID, ext, backOrder, doc.ID, now); err != nil {
				return err
			}
			target.UpdatedAt = now
			if err := savePhase(tx, target); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "review", documentID, map[string]string{"decision": req.Decision, "comment": req.Comment})
	return nil
}

// Revert 撤销文档批准,仅管理员
// 只对 APPROVED 文档合法;追加 REVERTED 条目,不删除先前的 APPROVED 条目;
// 若环节已越过该文档的审核,环节进度回滚到该环节
func (s *documentService) Revert(ctx context.Context, actor Actor, applicationID, documentID string, req *RevertDocumentRequest) error {
	if !actor.IsAdmin {
		return phase.NewForbidden("reverting a document approval requires admin role")
	}
	revertOrg := phase.OrgTypePlatform
	if req.OrganizationTypeCode != "" {
		parsed, err := phase.ParseOrgType(req.OrganizationTypeCode)
		if err != nil {
			return err
		}
		revertOrg = parsed
	}

	now := time.Now()
	var events []*integration.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
		docRepo := repository.NewDocumentRepository(tx)
		doc, err := docRepo.FindByID(documentID)
		if err != nil {
			return phase.NewNotFound("document", documentID)
		}
		if doc.ApplicationID != applicationID {
			return phase.NewNotFound("document", documentID)
		}
		if doc.Status != string(phase.DocumentStatusApproved) {
			return phase.NewInvalidTransition("document", doc.Status, "revert", "only APPROVED documents can be reverted")
		}

		app, err := loadApplicationTx(tx, applicationID)
		if err != nil {
			return err
		}
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err := phaseByID(phases, doc.PhaseID)
		if err != nil {
			return err
		}
		ext, err := documentationExt(target)
		if err != nil {
			return err
		}

		if err := appendReviewEntry(doc, phase.DocumentReviewEntry{
			Decision: phase.DocumentStatusReverted,
			OrgType:  revertOrg,
			Actor:    actor.UserID,
			Comment:  req.Reason,
			Time:     now,
		}); err != nil {
			return err
		}
		doc.Status = string(phase.DocumentStatusPending)
		doc.UpdatedAt = now
		if err := docRepo.Save(doc); err != nil {
			return err
		}

		// 已完成的阶段先重开,再回滚环节进度
		if target.Status == phase.StatusCompleted {
			if err := s.lc.sm.Reopen(target, actor.UserID, req.Reason, now); err != nil {
				return err
			}
			metrics.RecordPhaseTransition(string(target.Category), "reopen")
			evt, err := s.lc.record(tx, phase.EventPhaseReopened, applicationID, target.ID, map[string]interface{}{
				"reason": req.Reason,
			})
			if err != nil {
				return err
			}
			events = append(events, evt)

			if phase.ApplicationStatus(app.Status) == phase.ApplicationStatusCompleted {
				app.Status = string(phase.ApplicationStatusActive)
				app.CompletedAt = nil
				app.UpdatedAt = now
				if err := tx.Save(app).Error; err != nil {
					return err
				}
			}
		}

		stageOrder := ext.EarliestStageFor(phase.OrgType(doc.UploadedBy))
		if ext.CurrentStageOrder > stageOrder || ext.StageStatusOf(stageOrder) == phase.StageStatusCompleted {
			ext.CascadeBackTo(stageOrder)
		}
		target.UpdatedAt = now
		if err := savePhase(tx, target); err != nil {
			return err
		}

		evt, err := s.lc.record(tx, phase.EventDocumentReverted, applicationID, doc.PhaseID, map[string]interface{}{
			"document_id": doc.ID,
			"reason":      req.Reason,
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
	s.audit(ctx, actor.UserID, "revert", documentID, map[string]string{"reason": req.Reason})
	return nil
}

// ListByApplication 查询申请的全部文档
func (s *documentService) ListByApplication(applicationID string) ([]*model.DocumentModel, error) {
	return repository.NewDocumentRepository(s.db).FindByApplication(applicationID)
}

// History 查询文档的审核轨迹
func (s *documentService) History(documentID string) ([]phase.DocumentReviewEntry, error) {
	doc, err := repository.NewDocumentRepository(s.db).FindByID(documentID)
	if err != nil {
		return nil, phase.NewNotFound("document", documentID)
	}
	return decodeReviewTrail(doc)
}

// advanceIfSatisfied 当前环节满足时推进环节,直到遇到未满足的环节
// 推进进入自动流转环节时,先前排队等待的文档被自动批准;
// 全部环节完成时完成阶段并级联
func (s *documentService) advanceIfSatisfied(tx *gorm.DB, app *model.ApplicationModel, phases []*phase.Phase, target *phase.Phase, ext *phase.DocumentationExt, now time.Time) ([]*integration.Event, error) {
	docRepo := repository.NewDocumentRepository(tx)
	for {
		stage, err := ext.CurrentStage()
		if err != nil {
			return nil, err
		}
		docs, err := docRepo.FindByPhase(target.ID)
		if err != nil {
			return nil, err
		}

		if stage.AutoTransition {
			for _, d := range docs {
				if phase.OrgType(d.UploadedBy) != stage.OrgType || d.Status != string(phase.DocumentStatusPending) {
					continue
				}
				if err := appendReviewEntry(d, phase.DocumentReviewEntry{
					Decision: phase.DocumentStatusApproved,
					OrgType:  stage.OrgType,
					Actor:    "system",
					Comment:  "auto-approved on stage entry",
					Time:     now,
				}); err != nil {
					return nil, err
				}
				d.Status = string(phase.DocumentStatusApproved)
				d.UpdatedAt = now
				if err := docRepo.Save(d); err != nil {
					return nil, err
				}
			}
			docs, err = docRepo.FindByPhase(target.ID)
			if err != nil {
				return nil, err
			}
		}

		if !stageSatisfied(ext, stage, docs) {
			target.UpdatedAt = now
			return nil, savePhase(tx, target)
		}
		if ext.AdvanceStage() {
			target.UpdatedAt = now
			return s.lc.completeAndCascade(tx, app, phases, target, "system", now)
		}
	}
}

// resetStageDocuments 级联回退后把目标环节已批准的文档重置为待提交
// 被拒绝的文档保持拒绝状态,由上传方重新上传
func (s *documentService) resetStageDocuments(tx *gorm.DB, phaseID string, ext *phase.DocumentationExt, stageOrder int, rejectedDocID string, now time.Time) error {
	stage, err := ext.StageByOrder(stageOrder)
	if err != nil {
		return err
	}
	docRepo := repository.NewDocumentRepository(tx)
	docs, err := docRepo.FindByPhase(phaseID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.ID == rejectedDocID || phase.OrgType(d.UploadedBy) != stage.OrgType {
			continue
		}
		if d.Status == string(phase.DocumentStatusApproved) {
			d.Status = string(phase.DocumentStatusPending)
			d.UpdatedAt = now
			if err := docRepo.Save(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageSatisfied 判断环节是否满足
// waitForAllDocuments 要求该环节组织类型的全部文档定义均已批准,
// 否则任一所需文档批准即满足
func stageSatisfied(ext *phase.DocumentationExt, stage *phase.ApprovalStage, docs []*model.DocumentModel) bool {
	required := ext.RequiredTypesFor(stage.OrgType)
	approved := make(map[string]bool)
	for _, d := range docs {
		if d.Status == string(phase.DocumentStatusApproved) {
			approved[d.DocumentType] = true
		}
	}

	if stage.WaitForAllDocuments {
		for _, t := range required {
			if !approved[t] {
				return false
			}
		}
		return true
	}
	for _, t := range required {
		if approved[t] {
			return true
		}
	}
	return false
}

// documentationExt 取出阶段的文档扩展
func documentationExt(ph *phase.Phase) (*phase.DocumentationExt, error) {
	if ph.Category != phase.CategoryDocumentation || ph.Documentation == nil {
		return nil, phase.NewInvalidTransition("phase", string(ph.Status), "document operation",
			fmt.Sprintf("phase %s is not a DOCUMENTATION phase", ph.ID))
	}
	return ph.Documentation, nil
}

// appendReviewEntry 追加一条审核轨迹条目
func appendReviewEntry(doc *model.DocumentModel, entry phase.DocumentReviewEntry) error {
	trail, err := decodeReviewTrail(doc)
	if err != nil {
		return err
	}
	trail = append(trail, entry)
	data, err := json.Marshal(trail)
	if err != nil {
		return err
	}
	doc.Reviews = data
	return nil
}

// audit 记录审计日志,失败只忽略不阻断
func (s *documentService) audit(ctx context.Context, userID, action, documentID string, details interface{}) {
	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, action, model.AuditResourceDocument, documentID, details)
	}
}

// decodeReviewTrail 解码审核轨迹
func decodeReviewTrail(doc *model.DocumentModel) ([]phase.DocumentReviewEntry, error) {
	if len(doc.Reviews) == 0 {
		return nil, nil
	}
	var trail []phase.DocumentReviewEntry
	if err := json.Unmarshal(doc.Reviews, &trail); err != nil {
		return nil, fmt.Errorf("failed to decode review trail for document %s: %w", doc.ID, err)
	}
	return trail, nil
}
