package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 申请创建数
	applicationsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_created_total",
			Help: "Total number of mortgage applications created",
		},
	)

	// 阶段流转数,按类别和动作
	phaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phase_transitions_total",
			Help: "Total number of phase transitions",
		},
		[]string{"category", "action"}, // activate, complete, skip, reopen
	)

	// 文档审核数,按决定
	documentReviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_reviews_total",
			Help: "Total number of document review decisions",
		},
		[]string{"decision"},
	)

	// 支付入账数
	paymentsRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of payment events recorded",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 阶段状态分布
	phasesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "phases_by_status",
			Help: "Number of application phases by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(applicationsCreatedTotal)
	prometheus.MustRegister(phaseTransitionsTotal)
	prometheus.MustRegister(documentReviewsTotal)
	prometheus.MustRegister(paymentsRecordedTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(phasesByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标,如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordApplicationCreated 记录申请创建
func RecordApplicationCreated() {
	applicationsCreatedTotal.Inc()
}

// RecordPhaseTransition 记录阶段流转
func RecordPhaseTransition(category, action string) {
	phaseTransitionsTotal.WithLabelValues(category, action).Inc()
}

// RecordDocumentReview 记录文档审核决定
func RecordDocumentReview(decision string) {
	documentReviewsTotal.WithLabelValues(decision).Inc()
}

// RecordPaymentRecorded 记录支付入账
func RecordPaymentRecorded() {
	paymentsRecordedTotal.Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdatePhasesByStatus 更新阶段状态分布指标
func UpdatePhasesByStatus(status string, count float64) {
	phasesByStatus.WithLabelValues(status).Set(count)
}
