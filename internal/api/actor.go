package api

import (
	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
)

// actorFromContext 从 gin 上下文提取操作者身份
// user_id/organization_id/roles/org_types 由 Keycloak 认证中间件注入
func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{}

	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			actor.UserID = s
		}
	}
	if v, ok := c.Get("organization_id"); ok {
		if s, ok := v.(string); ok {
			actor.OrganizationID = s
		}
	}
	if v, ok := c.Get("roles"); ok {
		if roles, ok := v.([]string); ok {
			for _, role := range roles {
				if role == "admin" {
					actor.IsAdmin = true
					break
				}
			}
		}
	}
	if v, ok := c.Get("org_types"); ok {
		if types, ok := v.([]string); ok && len(types) > 0 {
			if t, err := phase.ParseOrgType(types[0]); err == nil {
				actor.PartyType = t
			}
		}
	}

	return actor
}
