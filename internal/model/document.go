package model

import (
	"errors"
	"time"
)

// DocumentModel 申请文档数据模型
// Reviews 为只追加的审核轨迹(JSON 数组),REVERTED 记录不会删除先前的记录
type DocumentModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	ApplicationID string    `gorm:"type:varchar(64);not null;index"`
	PhaseID       string    `gorm:"type:varchar(64);not null;index"`
	DocumentType  string    `gorm:"type:varchar(64);not null;index"`
	URL           string    `gorm:"type:text;not null"`
	UploadedBy    string    `gorm:"type:varchar(32);not null"` // 上传方组织类型
	UploaderID    string    `gorm:"type:varchar(64)"`          // 上传人用户 ID
	Status        string    `gorm:"type:varchar(32);not null;index"`
	Reviews       []byte    `gorm:"type:jsonb"` // 审核轨迹,只追加
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DocumentModel) TableName() string {
	return "application_documents"
}

// Validate 验证文档模型
func (dm *DocumentModel) Validate() error {
	if dm.ID == "" {
		return errors.New("document ID is required")
	}
	if dm.PhaseID == "" {
		return errors.New("phase ID is required")
	}
	if dm.DocumentType == "" {
		return errors.New("document type is required")
	}
	if dm.UploadedBy == "" {
		return errors.New("uploader party type is required")
	}
	if dm.Status == "" {
		return errors.New("document status is required")
	}
	return nil
}
