package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/integration"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/metrics"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PaymentService 支付阶段服务接口
// RecordPayment 同时服务于 NATS 消费者和支付 Webhook 路由
type PaymentService interface {
	integration.PaymentRecorder
	GenerateInstallments(ctx context.Context, actor Actor, applicationID, phaseID string, req *GenerateInstallmentsRequest) (*phase.PaymentExt, error)
}

// GenerateInstallmentsRequest 生成分期计划请求
// @Description 生成分期计划的请求参数
type GenerateInstallmentsRequest struct {
	StartDate    string `json:"start_date" example:"2026-09-01" binding:"required"` // 首期日期 (YYYY-MM-DD)
	InterestRate string `json:"interest_rate" example:"4.5"`                        // 年利率百分比,可选
}

// paymentService 支付阶段服务实现
type paymentService struct {
	db          *gorm.DB
	lc          *lifecycle
	log         *logrus.Logger
	auditLogSvc AuditLogService
}

// NewPaymentService 创建支付阶段服务
func NewPaymentService(db *gorm.DB, dispatcher *integration.Dispatcher, log *logrus.Logger, auditLogSvc AuditLogService) PaymentService {
	return &paymentService{
		db:          db,
		lc:          newLifecycle(dispatcher),
		log:         log,
		auditLogSvc: auditLogSvc,
	}
}

// GenerateInstallments 生成分期计划,仅管理员
// 配置了金额公式时用公式求每期金额,否则按期数均摊;
// 已存在分期计划时返回冲突
func (s *paymentService) GenerateInstallments(ctx context.Context, actor Actor, applicationID, phaseID string, req *GenerateInstallmentsRequest) (*phase.PaymentExt, error) {
	if !actor.IsAdmin {
		return nil, phase.NewForbidden("generating installments requires admin role")
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, phase.NewValidationError("start_date", "start date must be YYYY-MM-DD")
	}
	var interestRate decimal.Decimal
	if req.InterestRate != "" {
		interestRate, err = decimal.NewFromString(req.InterestRate)
		if err != nil || interestRate.IsNegative() {
			return nil, phase.NewValidationError("interest_rate", "interest rate must be a non-negative decimal")
		}
	}

	now := time.Now()
	var ext *phase.PaymentExt

	err = s.db.Transaction(func(tx *gorm.DB) error {
		phases, err := loadPhasesForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		target, err := phaseByID(phases, phaseID)
		if err != nil {
			return err
		}
		ext, err = paymentExt(target)
		if err != nil {
			return err
		}
		if len(ext.Installments) > 0 {
			return phase.NewConflict("installments are already generated for this phase")
		}

		if !interestRate.IsZero() {
			ext.InterestRate = interestRate
		}

		installments, err := buildInstallments(ext, startDate)
		if err != nil {
			return err
		}
		ext.Installments = installments
		target.UpdatedAt = now
		return savePhase(tx, target)
	})
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "generate_installments", model.AuditResourcePhase, phaseID,
			map[string]string{"start_date": req.StartDate})
	}
	return ext, nil
}

// RecordPayment 记录外部到账事件
// 按支付引用幂等: 同一 paymentRef 重复投递直接返回已入账结果,不二次累加;
// 已付金额覆盖总额时阶段自动完成并级联
func (s *paymentService) RecordPayment(ctx context.Context, applicationID, phaseID string, amount decimal.Decimal, paymentRef string) error {
	if paymentRef == "" {
		return phase.NewValidationError("payment_ref", "payment reference is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return phase.NewValidationError("amount", "amount must be positive")
	}

	now := time.Now()
	var events []*integration.Event
	duplicate := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		receipt := &model.PaymentReceiptModel{
			ID:            uuid.New().String(),
			PaymentRef:    paymentRef,
			ApplicationID: applicationID,
			PhaseID:       phaseID,
			Amount:        amount.String(),
			CreatedAt:     now,
		}
		if err := repository.NewPaymentRepository(tx).CreateReceipt(receipt); err != nil {
			if errors.Is(err, repository.ErrDuplicateReceipt) {
				duplicate = true
				return nil
			}
			return err
		}

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
		ext, err := paymentExt(target)
		if err != nil {
			return err
		}
		if target.Status != phase.StatusInProgress {
			return phase.NewInvalidTransition("phase", string(target.Status), "record payment", "phase must be IN_PROGRESS")
		}

		ext.PaidAmount = ext.PaidAmount.Add(amount)
		target.UpdatedAt = now

		evt, err := s.lc.record(tx, phase.EventPaymentRecorded, applicationID, phaseID, map[string]interface{}{
			"payment_ref": paymentRef,
			"amount":      amount.String(),
			"paid_amount": ext.PaidAmount.String(),
		})
		if err != nil {
			return err
		}
		events = append(events, evt)

		if ext.IsPaidInFull() {
			more, err := s.lc.completeAndCascade(tx, app, phases, target, "system", now)
			if err != nil {
				return err
			}
			events = append(events, more...)
			return nil
		}
		return savePhase(tx, target)
	})
	if err != nil {
		return err
	}

	if duplicate {
		s.log.WithFields(logrus.Fields{
			"phase_id":    phaseID,
			"payment_ref": paymentRef,
		}).Info("duplicate payment event ignored")
		return nil
	}

	s.lc.notify(events)
	metrics.RecordPaymentRecorded()
	return nil
}

// buildInstallments 生成分期条目
// 均摊模式下金额之和恒等于总额,尾差并入最后一期;
// 公式模式下每期金额由公式决定(可含利息,不强制合计等于总额)
func buildInstallments(ext *phase.PaymentExt, startDate time.Time) ([]phase.Installment, error) {
	count := ext.InstallmentCount
	if count <= 0 {
		count = 1
	}
	freq := ext.FrequencyMonths
	if freq <= 0 {
		freq = 1
	}

	perInstallment, err := installmentAmount(ext, count)
	if err != nil {
		return nil, err
	}

	installments := make([]phase.Installment, 0, count)
	accumulated := decimal.Zero
	for i := 0; i < count; i++ {
		amount := perInstallment
		if ext.AmountFormula == "" && i == count-1 {
			amount = ext.TotalAmount.Sub(accumulated)
		}
		accumulated = accumulated.Add(amount)
		installments = append(installments, phase.Installment{
			Sequence: i + 1,
			DueDate:  startDate.AddDate(0, i*freq, 0),
			Amount:   amount,
		})
	}
	return installments, nil
}

// installmentAmount 求单期金额: 有公式用公式,否则均摊
func installmentAmount(ext *phase.PaymentExt, count int) (decimal.Decimal, error) {
	if ext.AmountFormula == "" {
		return ext.TotalAmount.Div(decimal.NewFromInt(int64(count))).Round(2), nil
	}

	expr, err := govaluate.NewEvaluableExpression(ext.AmountFormula)
	if err != nil {
		return decimal.Zero, phase.NewValidationError("amount_formula", fmt.Sprintf("invalid formula: %v", err))
	}
	sum, _ := ext.TotalAmount.Float64()
	rate, _ := ext.InterestRate.Float64()
	result, err := expr.Evaluate(map[string]interface{}{
		"Sum":          sum,
		"Rate":         rate,
		"Installments": float64(count),
	})
	if err != nil {
		return decimal.Zero, phase.NewValidationError("amount_formula", fmt.Sprintf("failed to evaluate formula: %v", err))
	}
	value, ok := result.(float64)
	if !ok || value <= 0 {
		return decimal.Zero, phase.NewValidationError("amount_formula", "formula must yield a positive number")
	}
	return decimal.NewFromFloat(value).Round(2), nil
}

// paymentExt 取出阶段的支付扩展
func paymentExt(ph *phase.Phase) (*phase.PaymentExt, error) {
	if ph.Category != phase.CategoryPayment || ph.Payment == nil {
		return nil, phase.NewInvalidTransition("phase", string(ph.Status), "payment operation",
			fmt.Sprintf("phase %s is not a PAYMENT phase", ph.ID))
	}
	return ph.Payment, nil
}
