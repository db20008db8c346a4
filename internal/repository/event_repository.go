package repository

import (
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
)

// EventRepository 事件仓储接口
type EventRepository interface {
	Save(event *model.EventModel) error
	FindByApplication(applicationID string) ([]*model.EventModel, error)
	FindPending() ([]*model.EventModel, error)
	UpdateStatus(id string, status string, retryCount int) error
}

// eventRepository 事件仓储实现
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Save 保存事件
func (r *eventRepository) Save(event *model.EventModel) error {
	return r.db.Save(event).Error
}

// FindByApplication 根据申请 ID 查找事件
func (r *eventRepository) FindByApplication(applicationID string) ([]*model.EventModel, error) {
	var events []*model.EventModel
	err := r.db.Where("application_id = ?", applicationID).Order("created_at ASC").Find(&events).Error
	return events, err
}

// FindPending 查找待投递的事件
func (r *eventRepository) FindPending() ([]*model.EventModel, error) {
	var events []*model.EventModel
	err := r.db.Where("status = ?", "pending").Order("created_at ASC").Find(&events).Error
	return events, err
}

// UpdateStatus 更新事件投递状态
func (r *eventRepository) UpdateStatus(id string, status string, retryCount int) error {
	return r.db.Model(&model.EventModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "retry_count": retryCount}).Error
}
