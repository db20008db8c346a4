package service

import (
	"context"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
)

// Actor 发起操作的主体
// 在请求边界构造一次: 用户身份来自 JWT,参与方类型来自组织绑定解析
type Actor struct {
	UserID         string
	OrganizationID string
	PartyType      phase.OrgType
	IsAdmin        bool
}

// SystemActor 系统内部操作主体(自动流转、事件消费)
func SystemActor() Actor {
	return Actor{UserID: "system", IsAdmin: true}
}

// getUserIDFromContext 从 context 中获取用户ID（由认证中间件设置）
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}
