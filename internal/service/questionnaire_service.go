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

// QuestionnaireService 问卷服务接口
type QuestionnaireService interface {
	Submit(ctx context.Context, actor Actor, applicationID, phaseID string, req *SubmitAnswersRequest) (*phase.Phase, error)
	Review(ctx context.Context, actor Actor, applicationID, phaseID string, req *ReviewQuestionnaireRequest) error
}

// SubmitAnswersRequest 提交问卷答案请求
// @Description 提交问卷答案的请求参数
type SubmitAnswersRequest struct {
	Answers []phase.Answer `json:"answers" binding:"required"` // 答案列表
}

// ReviewQuestionnaireRequest 问卷人工审核请求
// @Description 问卷人工审核的请求参数
type ReviewQuestionnaireRequest struct {
	Decision string `json:"decision" example:"APPROVE" binding:"required"` // APPROVE/REJECT
	Notes    string `json:"notes" example:"收入证明充分"`                        // 审核备注
	// Terminate 拒绝时是否取消整个申请;为 false 时阶段回到进行中允许重新提交
	Terminate bool `json:"terminate" example:"false"`
}

// questionnaireService 问卷服务实现
type questionnaireService struct {
	db          *gorm.DB
	lc          *lifecycle
	auditLogSvc AuditLogService
}

// NewQuestionnaireService 创建问卷服务
func NewQuestionnaireService(db *gorm.DB, dispatcher *integration.Dispatcher, auditLogSvc AuditLogService) QuestionnaireService {
	return &questionnaireService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		auditLogSvc: auditLogSvc,
	}
}

// Submit 提交问卷答案
// 校验必填项、按计分规则计算总分后转入等待审核;
// 启用自动决定时按通过线直接完成或取消申请,无需人工审核
func (s *questionnaireService) Submit(ctx context.Context, actor Actor, applicationID, phaseID string, req *SubmitAnswersRequest) (*phase.Phase, error) {
	now := time.Now()
	var events []*integration.Event
	var target *phase.Phase

	err := s.db.Transaction(func(tx *gorm.DB) error {
		app, err := loadApplicationTx(tx, applicationID)
		if err != nil {
			return err
		}
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err = phaseByID(phases, phaseID)
		if err != nil {
			return err
		}
		ext, err := questionnaireExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusInProgress {
			return phase.NewInvalidTransition("phase", string(target.Status), "submit answers", "phase must be IN_PROGRESS")
		}

		if err := ext.ValidateAnswers(req.Answers); err != nil {
			return err
		}
		score, err := ext.ComputeScore(req.Answers)
		if err != nil {
			return err
		}

		ext.Answers = req.Answers
		ext.Score = &score
		ext.SubmittedAt = &now

		if err := s.lc.sm.MarkAwaitingApproval(target, actor.UserID, now); err != nil {
			return err
		}

		if !ext.AutoDecisionEnabled {
			return savePhase(tx, target)
		}

		// 自动决定
		if score >= ext.PassingScore {
			ext.Review = &phase.QuestionnaireReview{
				Decision: phase.ReviewDecisionApprove,
				Notes:    fmt.Sprintf("auto-approved: score %.2f >= passing score %.2f", score, ext.PassingScore),
				Reviewer: "system",
				Time:     now,
			}
			more, err := s.lc.completeAndCascade(tx, app, phases, target, "system", now)
			if err != nil {
				return err
			}
			events = append(events, more...)
			return nil
		}

		ext.Review = &phase.QuestionnaireReview{
			Decision:  phase.ReviewDecisionReject,
			Notes:     fmt.Sprintf("auto-rejected: score %.2f below passing score %.2f", score, ext.PassingScore),
			Reviewer:  "system",
			Terminate: true,
			Time:      now,
		}
		if err := savePhase(tx, target); err != nil {
			return err
		}
		evt, err := s.lc.cancelApplication(tx, app, phase.ApplicationStatusCancelled, "questionnaire auto-rejected", now)
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "submit_answers", phaseID, map[string]interface{}{"application_id": applicationID, "answers": len(req.Answers)})
	return target, nil
}

// Review 问卷人工审核,仅管理员
// APPROVE 完成阶段并级联;REJECT 按 terminate 取消申请或放回进行中允许重新提交
func (s *questionnaireService) Review(ctx context.Context, actor Actor, applicationID, phaseID string, req *ReviewQuestionnaireRequest) error {
	if !actor.IsAdmin {
		return phase.NewForbidden("reviewing a questionnaire requires admin role")
	}
	if req.Decision != string(phase.ReviewDecisionApprove) && req.Decision != string(phase.ReviewDecisionReject) {
		return phase.NewValidationError("decision", fmt.Sprintf("unknown review decision: %s", req.Decision))
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
		ext, err := questionnaireExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusAwaitingApproval {
			return phase.NewInvalidTransition("phase", string(target.Status), "review questionnaire", "phase must be AWAITING_APPROVAL")
		}

		ext.Review = &phase.QuestionnaireReview{
			Decision:  phase.ReviewDecision(req.Decision),
			Notes:     req.Notes,
			Reviewer:  actor.UserID,
			Terminate: req.Terminate,
			Time:      now,
		}

		if req.Decision == string(phase.ReviewDecisionApprove) {
			more, err := s.lc.completeAndCascade(tx, app, phases, target, actor.UserID, now)
			if err != nil {
				return err
			}
			events = append(events, more...)
			return nil
		}

		if req.Terminate {
			if err := savePhase(tx, target); err != nil {
				return err
			}
			evt, err := s.lc.cancelApplication(tx, app, phase.ApplicationStatusCancelled, req.Notes, now)
			if err != nil {
				return err
			}
			events = append(events, evt)
			return nil
		}

		// 拒绝但不终止: 放回进行中,购房人可重新提交
		target.AddStateChange(target.Status, phase.StatusInProgress, "questionnaire rejected, resubmission allowed", actor.UserID, now)
		target.Status = phase.StatusInProgress
		target.UpdatedAt = now
		return savePhase(tx, target)
	})
	if err != nil {
		return err
	}

	s.lc.notify(events)
	s.audit(ctx, actor.UserID, "review_questionnaire", phaseID, map[string]string{"decision": req.Decision, "notes": req.Notes})
	return nil
}

// questionnaireExt 取出阶段的问卷扩展
func questionnaireExt(ph *phase.Phase) (*phase.QuestionnaireExt, error) {
	if ph.Category != phase.CategoryQuestionnaire || ph.Questionnaire == nil {
		return nil, phase.NewInvalidTransition("phase", string(ph.Status), "questionnaire operation",
			fmt.Sprintf("phase %s is not a QUESTIONNAIRE phase", ph.ID))
	}
	return ph.Questionnaire, nil
}

// audit 记录审计日志,失败只忽略不阻断
func (s *questionnaireService) audit(ctx context.Context, userID, action, phaseID string, details interface{}) {
	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, action, model.AuditResourcePhase, phaseID, details)
	}
}
