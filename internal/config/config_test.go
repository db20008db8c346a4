package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults 测试默认配置
func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "mortgage", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	// NATS 默认关闭
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "payments.received", cfg.NATS.Subject)
	assert.Equal(t, "mortgage-engine", cfg.NATS.QueueGroup)

	// 事件投递与限流
	assert.Equal(t, 2, cfg.Webhook.Workers)
	assert.Equal(t, float64(100), cfg.RateLimit.RPS)
	assert.Equal(t, 200, cfg.RateLimit.Burst)

	assert.False(t, config.IsProduction(cfg))
}

// TestLoad_FromFile 测试从配置文件加载
func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
env: production
server:
  port: 9090
database:
  dbname: mortgage_prod
nats:
  enabled: true
  subject: payments.prod
rate_limit:
  rps: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mortgage_prod", cfg.Database.DBName)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "payments.prod", cfg.NATS.Subject)
	assert.Equal(t, float64(50), cfg.RateLimit.RPS)
	// 未覆盖的键保持默认值
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, config.IsProduction(cfg))
}

// TestLoad_FileNotFound 测试配置文件不存在
func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestLoad_EnvOverride 测试环境变量覆盖
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "7070")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}
