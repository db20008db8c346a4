package service_test

import (
	"context"
	"testing"

	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuditLogService_RecordAction 测试记录审计日志
func TestAuditLogService_RecordAction(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewAuditLogService(repository.NewAuditLogRepository(db))

	ctx := context.WithValue(context.Background(), "request_id", "req-001")
	ctx = context.WithValue(ctx, "ip", "10.0.0.1")
	ctx = context.WithValue(ctx, "user_agent", "integration-test")

	err := svc.RecordAction(ctx, "admin-001", "skip", "phase", "phase-001",
		map[string]string{"reason": "bank waived"})
	require.NoError(t, err)

	logs, err := svc.FindByResource("phase", "phase-001")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-001", logs[0].UserID)
	assert.Equal(t, "skip", logs[0].Action)
	assert.Equal(t, "req-001", logs[0].RequestID)
	assert.Equal(t, "10.0.0.1", logs[0].IP)
	assert.Equal(t, "integration-test", logs[0].UserAgent)
	assert.Contains(t, string(logs[0].Details), "bank waived")
}

// TestAuditLogService_AttachedToServiceCalls 测试业务操作产生审计轨迹
func TestAuditLogService_AttachedToServiceCalls(t *testing.T) {
	db := newTestDB(t)
	seedPlan(t, db, newWorkflowPlan())
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	appSvc := service.NewApplicationService(db, nil, auditSvc)

	detail := createApplication(t, appSvc, "plan-workflow")

	logs, err := auditSvc.FindByResource("application", detail.Application.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, "user-001", logs[0].UserID)

	require.NoError(t, appSvc.Cancel(context.Background(), adminActor(), detail.Application.ID, "withdrawn"))
	logs, err = auditSvc.FindByResource("application", detail.Application.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
