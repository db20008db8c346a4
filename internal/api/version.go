package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultAPIVersion = "v1"

// VersionMiddleware API 版本中间件
// 版本取自 URL 路径 (/api/v1/...)；请求头 API-Version 优先级更高
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := versionFromPath(c.Request.URL.Path)
		if hv := c.GetHeader("API-Version"); hv != "" {
			version = hv
		}
		c.Set("api_version", version)
		c.Next()
	}
}

func versionFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return defaultAPIVersion
	}
	seg, _, _ := strings.Cut(rest, "/")
	if strings.HasPrefix(seg, "v") && len(seg) > 1 {
		return seg
	}
	return defaultAPIVersion
}

// GetAPIVersion 从上下文获取 API 版本
func GetAPIVersion(c *gin.Context) string {
	if v, ok := c.Get("api_version"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultAPIVersion
}
