package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/auth"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	db        *gorm.DB
	fgaClient *auth.OpenFGAClient
}

// NewHealthController 创建健康检查控制器,未配置的依赖跳过检查
func NewHealthController(db *gorm.DB, fgaClient *auth.OpenFGAClient) *HealthController {
	return &HealthController{
		db:        db,
		fgaClient: fgaClient,
	}
}

// Check 健康检查,任一已配置依赖不可用时返回 503
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	record := func(name string, configured bool, check func(context.Context) error) {
		if !configured {
			checks[name] = "not configured"
			return
		}
		if err := check(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks[name] = "unhealthy: " + err.Error()
			return
		}
		checks[name] = "healthy"
	}

	record("database", c.db != nil, c.checkDatabase)
	record("openfga", c.fgaClient != nil, c.checkOpenFGA)

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// checkOpenFGA 检查 OpenFGA 连接
func (c *HealthController) checkOpenFGA(ctx context.Context) error {
	if !c.fgaClient.CheckHealth(ctx) {
		return errors.New("openfga unreachable")
	}
	return nil
}
