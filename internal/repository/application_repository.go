package repository

import (
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
)

// ApplicationRepository 申请仓储接口
type ApplicationRepository interface {
	Save(app *model.ApplicationModel) error
	FindByID(id string) (*model.ApplicationModel, error)
	FindByFilter(filter *ApplicationFilter) ([]*model.ApplicationModel, int64, error)
	UpdateStatus(id string, status string) error
}

// ApplicationFilter 申请查询过滤器;PageSize 为 0 时不分页
type ApplicationFilter struct {
	TenantID *string
	BuyerID  *string
	Status   *string
	PlanID   *string
	Page     int
	PageSize int
}

// applicationRepository 申请仓储实现
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository 创建申请仓储
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Save 保存申请
func (r *applicationRepository) Save(app *model.ApplicationModel) error {
	return r.db.Save(app).Error
}

// FindByID 根据 ID 查找申请
func (r *applicationRepository) FindByID(id string) (*model.ApplicationModel, error) {
	var app model.ApplicationModel
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByFilter 根据过滤器查找申请,返回当前页数据和总记录数
func (r *applicationRepository) FindByFilter(filter *ApplicationFilter) ([]*model.ApplicationModel, int64, error) {
	var apps []*model.ApplicationModel
	query := r.db.Model(&model.ApplicationModel{})

	if filter != nil {
		if filter.TenantID != nil {
			query = query.Where("tenant_id = ?", *filter.TenantID)
		}
		if filter.BuyerID != nil {
			query = query.Where("buyer_id = ?", *filter.BuyerID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.PlanID != nil {
			query = query.Where("plan_id = ?", *filter.PlanID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	err := query.Order("created_at DESC").Find(&apps).Error
	return apps, total, err
}

// UpdateStatus 更新申请状态
func (r *applicationRepository) UpdateStatus(id string, status string) error {
	return r.db.Model(&model.ApplicationModel{}).Where("id = ?", id).Update("status", status).Error
}
