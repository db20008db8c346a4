package repository

import (
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
)

// DocumentRepository 文档仓储接口
type DocumentRepository interface {
	Save(doc *model.DocumentModel) error
	FindByID(id string) (*model.DocumentModel, error)
	FindByPhase(phaseID string) ([]*model.DocumentModel, error)
	FindByApplication(applicationID string) ([]*model.DocumentModel, error)
	FindByPhaseAndType(phaseID string, documentType string) (*model.DocumentModel, error)
}

// documentRepository 文档仓储实现
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Save 保存文档
func (r *documentRepository) Save(doc *model.DocumentModel) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return r.db.Save(doc).Error
}

// FindByID 根据 ID 查找文档
func (r *documentRepository) FindByID(id string) (*model.DocumentModel, error) {
	var doc model.DocumentModel
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByPhase 查找阶段下的全部文档
func (r *documentRepository) FindByPhase(phaseID string) ([]*model.DocumentModel, error) {
	var docs []*model.DocumentModel
	err := r.db.Where("phase_id = ?", phaseID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// FindByApplication 查找申请下的全部文档
func (r *documentRepository) FindByApplication(applicationID string) ([]*model.DocumentModel, error) {
	var docs []*model.DocumentModel
	err := r.db.Where("application_id = ?", applicationID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// FindByPhaseAndType 按阶段与类型查找文档,不存在时返回 gorm.ErrRecordNotFound
func (r *documentRepository) FindByPhaseAndType(phaseID string, documentType string) (*model.DocumentModel, error) {
	var doc model.DocumentModel
	if err := r.db.Where("phase_id = ? AND document_type = ?", phaseID, documentType).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
