package repository

import (
	"errors"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateReceipt 支付事件重复投递
var ErrDuplicateReceipt = errors.New("payment reference already recorded")

// PaymentRepository 支付记录仓储接口
type PaymentRepository interface {
	CreateReceipt(receipt *model.PaymentReceiptModel) error
	FindReceiptByRef(paymentRef string) (*model.PaymentReceiptModel, error)
	FindReceiptsByPhase(phaseID string) ([]*model.PaymentReceiptModel, error)
}

// paymentRepository 支付记录仓储实现
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付记录仓储
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateReceipt 插入支付记录,payment_ref 冲突时返回 ErrDuplicateReceipt
// 与累加已付金额同一事务执行,保证重复事件不会二次入账
func (r *paymentRepository) CreateReceipt(receipt *model.PaymentReceiptModel) error {
	if err := receipt.Validate(); err != nil {
		return err
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_ref"}},
		DoNothing: true,
	}).Create(receipt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateReceipt
	}
	return nil
}

// FindReceiptByRef 根据支付引用查找记录
func (r *paymentRepository) FindReceiptByRef(paymentRef string) (*model.PaymentReceiptModel, error) {
	var receipt model.PaymentReceiptModel
	if err := r.db.Where("payment_ref = ?", paymentRef).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// FindReceiptsByPhase 查找阶段下的全部支付记录
func (r *paymentRepository) FindReceiptsByPhase(phaseID string) ([]*model.PaymentReceiptModel, error) {
	var receipts []*model.PaymentReceiptModel
	err := r.db.Where("phase_id = ?", phaseID).Order("created_at ASC").Find(&receipts).Error
	return receipts, err
}
