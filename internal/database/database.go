package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/config"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// GetProductionPoolConfig 获取生产环境连接池配置
func GetProductionPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    20,
		MaxOpenConns:    200,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 300,  // 5 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return connect(cfg, GetPoolConfig())
}

// ConnectProduction 连接数据库（生产环境配置）
func ConnectProduction(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return connect(cfg, GetProductionPoolConfig())
}

// connect 建立连接并应用连接池参数
// 配置中显式设置的连接池参数优先于传入的默认值
func connect(cfg config.DatabaseConfig, defaults *PoolConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pool := &PoolConfig{
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	if pool.MaxIdleConns == 0 {
		pool.MaxIdleConns = defaults.MaxIdleConns
	}
	if pool.MaxOpenConns == 0 {
		pool.MaxOpenConns = defaults.MaxOpenConns
	}
	if pool.ConnMaxLifetime == 0 {
		pool.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if pool.ConnMaxIdleTime == 0 {
		pool.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb,需要手动创建表
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.PlanModel{},
			&model.ApplicationModel{},
			&model.PhaseModel{},
			&model.DocumentModel{},
			&model.OrganizationModel{},
			&model.BindingModel{},
			&model.MemberModel{},
			&model.PaymentReceiptModel{},
			&model.IdempotencyKeyModel{},
			&model.EventModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	statements := map[string]string{
		"payment_plans": `
		CREATE TABLE IF NOT EXISTS payment_plans (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			created_by VARCHAR(64)
		)`,
		"applications": `
		CREATE TABLE IF NOT EXISTS applications (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			buyer_id VARCHAR(64) NOT NULL,
			property_unit VARCHAR(64) NOT NULL,
			plan_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			total_amount VARCHAR(64) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			submitted_at DATETIME,
			completed_at DATETIME
		)`,
		"application_phases": `
		CREATE TABLE IF NOT EXISTS application_phases (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			phase_order INTEGER NOT NULL,
			category VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (application_id, phase_order)
		)`,
		"application_documents": `
		CREATE TABLE IF NOT EXISTS application_documents (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			phase_id VARCHAR(64) NOT NULL,
			document_type VARCHAR(64) NOT NULL,
			url TEXT NOT NULL,
			uploaded_by VARCHAR(32) NOT NULL,
			uploader_id VARCHAR(64),
			status VARCHAR(32) NOT NULL,
			reviews TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		"organizations": `
		CREATE TABLE IF NOT EXISTS organizations (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			types VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		"application_organizations": `
		CREATE TABLE IF NOT EXISTS application_organizations (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			organization_id VARCHAR(64) NOT NULL,
			assigned_as_type VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT 0,
			sla_hours INTEGER DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (application_id, organization_id, assigned_as_type)
		)`,
		"organization_members": `
		CREATE TABLE IF NOT EXISTS organization_members (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			organization_id VARCHAR(64) NOT NULL,
			role VARCHAR(64),
			created_at DATETIME NOT NULL,
			UNIQUE (user_id, organization_id)
		)`,
		"payment_receipts": `
		CREATE TABLE IF NOT EXISTS payment_receipts (
			id VARCHAR(64) PRIMARY KEY,
			payment_ref VARCHAR(128) NOT NULL UNIQUE,
			application_id VARCHAR(64) NOT NULL,
			phase_id VARCHAR(64) NOT NULL,
			amount VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		"idempotency_keys": `
		CREATE TABLE IF NOT EXISTS idempotency_keys (
			key VARCHAR(128) PRIMARY KEY,
			method VARCHAR(8) NOT NULL,
			path VARCHAR(255) NOT NULL,
			status_code INTEGER NOT NULL,
			response TEXT,
			created_at DATETIME NOT NULL
		)`,
		"events": `
		CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			phase_id VARCHAR(64),
			type VARCHAR(32) NOT NULL,
			data TEXT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			retry_count INTEGER DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		"audit_logs": `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)`,
	}

	for table, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", table, err)
		}
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	indexes := []string{
		// applications 表索引
		"CREATE INDEX IF NOT EXISTS idx_applications_tenant ON applications(tenant_id)",
		"CREATE INDEX IF NOT EXISTS idx_applications_buyer ON applications(buyer_id)",
		"CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)",
		"CREATE INDEX IF NOT EXISTS idx_applications_plan ON applications(plan_id)",
		"CREATE INDEX IF NOT EXISTS idx_applications_updated_at ON applications(updated_at)",

		// application_phases 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_phases_app_order ON application_phases(application_id, phase_order)",
		"CREATE INDEX IF NOT EXISTS idx_phases_status ON application_phases(status)",
		"CREATE INDEX IF NOT EXISTS idx_phases_category ON application_phases(category)",

		// application_documents 表索引
		"CREATE INDEX IF NOT EXISTS idx_documents_application ON application_documents(application_id)",
		"CREATE INDEX IF NOT EXISTS idx_documents_phase ON application_documents(phase_id)",
		"CREATE INDEX IF NOT EXISTS idx_documents_type ON application_documents(document_type)",
		"CREATE INDEX IF NOT EXISTS idx_documents_status ON application_documents(status)",

		// application_organizations 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bindings_unique ON application_organizations(application_id, organization_id, assigned_as_type)",
		"CREATE INDEX IF NOT EXISTS idx_bindings_status ON application_organizations(status)",

		// organization_members 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_members_user_org ON organization_members(user_id, organization_id)",

		// payment_receipts 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_receipts_ref ON payment_receipts(payment_ref)",
		"CREATE INDEX IF NOT EXISTS idx_receipts_application ON payment_receipts(application_id)",

		// events 表索引
		"CREATE INDEX IF NOT EXISTS idx_events_status ON events(status)",
		"CREATE INDEX IF NOT EXISTS idx_events_application ON events(application_id)",
		"CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)",

		// audit_logs 表索引
		"CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// PostgreSQL 特定的 GIN 索引
	if dialector == "postgres" {
		ginIndexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_phases_data_gin ON application_phases USING GIN (data)",
			"CREATE INDEX IF NOT EXISTS idx_plans_data_gin ON payment_plans USING GIN (data)",
		}
		for _, stmt := range ginIndexes {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to create GIN index: %w", err)
			}
		}
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}

// Reconnect 重新连接数据库
func Reconnect(cfg config.DatabaseConfig, oldDB *gorm.DB) (*gorm.DB, error) {
	if oldDB != nil {
		if sqlDB, err := oldDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return Connect(cfg)
}
