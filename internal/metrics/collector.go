package metrics

import (
	"context"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期采样数据库连接池状态和阶段状态分布
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.collectPhaseStatus()
		}
	}
}

// collectPhaseStatus 采样阶段状态分布
func (c *Collector) collectPhaseStatus() {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := c.db.Model(&model.PhaseModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return
	}
	for _, row := range rows {
		UpdatePhasesByStatus(row.Status, float64(row.Count))
	}
}
