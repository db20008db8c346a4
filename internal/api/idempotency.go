package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/model"
)

// IdempotencyKeyHeader 幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

// bodyRecorder 捕获响应体,用于幂等回放存储
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware 幂等中间件
// 携带相同 Idempotency-Key 的重复变更请求直接回放首次响应,不会重复执行
func IdempotencyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		var record model.IdempotencyKeyModel
		err := db.Where("key = ?", key).First(&record).Error
		if err == nil {
			// 键已存在,路径或方法不一致视为客户端误用
			if record.Method != c.Request.Method || record.Path != c.Request.URL.Path {
				Error(c, http.StatusConflict, "idempotency key reused", "key was used for a different request")
				c.Abort()
				return
			}
			c.Data(record.StatusCode, "application/json", record.Response)
			c.Abort()
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			Error(c, http.StatusInternalServerError, "idempotency check failed", err.Error())
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		// 只存储成功响应,失败请求允许客户端用同一个键重试
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.IdempotencyKeyModel{
				Key:        key,
				Method:     c.Request.Method,
				Path:       c.Request.URL.Path,
				StatusCode: status,
				Response:   recorder.body.Bytes(),
				CreatedAt:  time.Now(),
			})
		}
	}
}
