package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	ws "github.com/Valentine-Efagene/real-estate-sub006/internal/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxDeliveryRetries Webhook 投递最大重试次数
const maxDeliveryRetries = 3

// Event 领域事件
type Event struct {
	ID            string          `json:"id"`
	Type          phase.EventType `json:"type"`
	ApplicationID string          `json:"application_id"`
	PhaseID       string          `json:"phase_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Dispatcher 领域事件分发器
// 事件在触发事务内落库,提交后异步推送到 Webhook 和 WebSocket 订阅者,
// 投递失败只记录重试,绝不回滚已提交的阶段流转
type Dispatcher struct {
	db         *gorm.DB
	log        *logrus.Logger
	hub        *ws.Hub
	webhookURL string
	httpClient *http.Client
	queue      chan *Event
	stop       chan struct{}
}

// NewDispatcher 创建事件分发器并启动投递 worker
func NewDispatcher(db *gorm.DB, log *logrus.Logger, hub *ws.Hub, webhookURL string, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{
		db:         db,
		log:        log,
		hub:        hub,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan *Event, 1000),
		stop:       make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Record 在给定事务内持久化事件并返回它
// 调用方在事务提交后再调用 Notify 推送
func (d *Dispatcher) Record(tx *gorm.DB, evtType phase.EventType, applicationID, phaseID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	evt := &Event{
		ID:            uuid.New().String(),
		Type:          evtType,
		ApplicationID: applicationID,
		PhaseID:       phaseID,
		Payload:       data,
		OccurredAt:    time.Now(),
	}

	evtData, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	eventModel := &model.EventModel{
		ID:            evt.ID,
		ApplicationID: applicationID,
		PhaseID:       phaseID,
		Type:          string(evtType),
		Data:          evtData,
		Status:        "pending",
		CreatedAt:     evt.OccurredAt,
		UpdatedAt:     evt.OccurredAt,
	}

	if err := repository.NewEventRepository(tx).Save(eventModel); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	return evt, nil
}

// Notify 事务提交后把事件送入投递队列,队列满时丢给重试扫描
func (d *Dispatcher) Notify(events ...*Event) {
	for _, evt := range events {
		select {
		case d.queue <- evt:
		default:
			d.log.WithField("event_id", evt.ID).Warn("event queue full, left pending for retry sweep")
		}
	}
}

// RetryPending 重新投递库中所有待处理事件,启动时调用
func (d *Dispatcher) RetryPending() error {
	pending, err := repository.NewEventRepository(d.db).FindPending()
	if err != nil {
		return err
	}
	for _, em := range pending {
		var evt Event
		if err := json.Unmarshal(em.Data, &evt); err != nil {
			d.log.WithField("event_id", em.ID).WithError(err).Error("failed to decode pending event")
			continue
		}
		d.Notify(&evt)
	}
	return nil
}

// Close 停止投递 worker
func (d *Dispatcher) Close() {
	close(d.stop)
}

// worker 投递循环
func (d *Dispatcher) worker() {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(evt)
		case <-d.stop:
			return
		}
	}
}

// deliver 推送单个事件
func (d *Dispatcher) deliver(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		d.log.WithField("event_id", evt.ID).WithError(err).Error("failed to marshal event for delivery")
		return
	}

	// WebSocket 广播对订阅者尽力而为
	if d.hub != nil {
		d.hub.BroadcastEvent(data)
	}

	if d.webhookURL == "" {
		d.markDelivered(evt.ID, 0)
		return
	}

	eventRepo := repository.NewEventRepository(d.db)
	for attempt := 0; attempt < maxDeliveryRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
		resp, err := d.httpClient.Post(d.webhookURL, "application/json", bytes.NewReader(data))
		if err != nil {
			d.log.WithField("event_id", evt.ID).WithError(err).Warn("webhook delivery failed")
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			d.markDelivered(evt.ID, attempt)
			return
		}
		d.log.WithFields(logrus.Fields{"event_id": evt.ID, "status": resp.StatusCode}).Warn("webhook returned non-2xx")
	}

	if err := eventRepo.UpdateStatus(evt.ID, "failed", maxDeliveryRetries); err != nil {
		d.log.WithField("event_id", evt.ID).WithError(err).Error("failed to mark event failed")
	}
}

// markDelivered 标记事件投递成功
func (d *Dispatcher) markDelivered(eventID string, retries int) {
	if err := repository.NewEventRepository(d.db).UpdateStatus(eventID, "success", retries); err != nil {
		d.log.WithField("event_id", eventID).WithError(err).Error("failed to mark event delivered")
	}
}
