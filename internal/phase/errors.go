package phase

import "fmt"

// ValidationError 输入校验错误 (HTTP 400)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError 创建输入校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError 非法状态流转错误 (HTTP 400)
// Precondition 指明被违反的前置条件,调用方总能拿到具体原因
type InvalidTransitionError struct {
	Entity       string
	From         string
	Operation    string
	Precondition string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s: %s", e.Operation, e.Entity, e.From, e.Precondition)
}

// NewInvalidTransition 创建非法状态流转错误
func NewInvalidTransition(entity, from, operation, precondition string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from, Operation: operation, Precondition: precondition}
}

// NotFoundError 实体不存在错误 (HTTP 404)
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFound 创建实体不存在错误
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForbiddenError 权限不足错误 (HTTP 403)
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// NewForbidden 创建权限不足错误
func NewForbidden(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// ConflictError 状态冲突错误 (HTTP 409)
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflict 创建状态冲突错误
func NewConflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}
