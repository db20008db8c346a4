package model

import (
	"errors"
	"time"
)

// PaymentReceiptModel 支付事件去重记录
// payment_ref 唯一,同一支付事件重复投递不会二次累加已付金额
type PaymentReceiptModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	PaymentRef    string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	ApplicationID string    `gorm:"type:varchar(64);not null;index"`
	PhaseID       string    `gorm:"type:varchar(64);not null;index"`
	Amount        string    `gorm:"type:varchar(64);not null"` // 十进制字符串
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (PaymentReceiptModel) TableName() string {
	return "payment_receipts"
}

// Validate 验证支付记录模型
func (pm *PaymentReceiptModel) Validate() error {
	if pm.ID == "" {
		return errors.New("receipt ID is required")
	}
	if pm.PaymentRef == "" {
		return errors.New("payment reference is required")
	}
	if pm.PhaseID == "" {
		return errors.New("phase ID is required")
	}
	if pm.Amount == "" {
		return errors.New("amount is required")
	}
	return nil
}

// IdempotencyKeyModel 幂等键记录
// 重放同一键的请求直接返回存储的响应,不重复执行处理器
type IdempotencyKeyModel struct {
	Key        string    `gorm:"primaryKey;type:varchar(128)"`
	Method     string    `gorm:"type:varchar(8);not null"`
	Path       string    `gorm:"type:varchar(255);not null"`
	StatusCode int       `gorm:"type:int;not null"`
	Response   []byte    `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (IdempotencyKeyModel) TableName() string {
	return "idempotency_keys"
}
