package utils

import (
	"regexp"
	"strings"
)

// idPattern 资源 ID 只允许字母、数字、连字符和下划线
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const maxIDLength = 64

// 错误定义
var (
	ErrEmptyName       = &ValidationError{Code: "EMPTY_NAME", Message: "name cannot be empty"}
	ErrNameTooLong     = &ValidationError{Code: "NAME_TOO_LONG", Message: "name exceeds maximum length"}
	ErrDangerousChars  = &ValidationError{Code: "DANGEROUS_CHARS", Message: "name contains dangerous characters"}
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validateID 校验资源 ID 的格式和长度
func validateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > maxIDLength {
		return ErrIDTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidateApplicationID 验证申请 ID 格式
func ValidateApplicationID(id string) error {
	return validateID(id)
}

// ValidatePlanID 验证付款计划 ID 格式
func ValidatePlanID(id string) error {
	return validateID(id)
}

// ValidatePhaseID 验证阶段 ID 格式
func ValidatePhaseID(id string) error {
	return validateID(id)
}

// ValidateDocumentID 验证文档 ID 格式
func ValidateDocumentID(id string) error {
	return validateID(id)
}

// ValidatePlanName 验证付款计划名称
func ValidatePlanName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 255 {
		return ErrNameTooLong
	}
	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}
	return nil
}

// containsDangerousChars 检查常见的 XSS 和 SQL 注入片段
func containsDangerousChars(s string) bool {
	dangerousPatterns := []string{
		"<script",
		"</script>",
		"javascript:",
		"onerror=",
		"onload=",
		"';",
		"'; --",
		"drop table",
		"delete from",
		"insert into",
		"union select",
		"<iframe",
		"<img",
		"<svg",
	}

	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}
