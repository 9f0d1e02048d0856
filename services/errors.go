package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Workflow error codes, surfaced unchanged in API error responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeNotAccepted       = "NOT_ACCEPTED"
	CodeRequestLocked     = "REQUEST_LOCKED"
	CodeAlreadyApproved   = "ALREADY_APPROVED"
	CodeAlreadyRated      = "ALREADY_RATED"
)

// WorkflowError is a domain rule violation raised by a workflow operation
type WorkflowError struct {
	Code    string
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

// Is matches any WorkflowError with the same code, so callers can write
// errors.Is(err, services.ErrConflict).
func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is comparisons
var (
	ErrNotFound          = &WorkflowError{Code: CodeNotFound, Message: "resource not found"}
	ErrForbidden         = &WorkflowError{Code: CodeForbidden, Message: "access denied"}
	ErrInvalidTransition = &WorkflowError{Code: CodeInvalidTransition, Message: "transition not allowed"}
	ErrConflict          = &WorkflowError{Code: CodeConflict, Message: "record was modified concurrently"}
	ErrNotAccepted       = &WorkflowError{Code: CodeNotAccepted, Message: "custom request has not been accepted"}
	ErrRequestLocked     = &WorkflowError{Code: CodeRequestLocked, Message: "custom request is linked to a completed order"}
	ErrAlreadyApproved   = &WorkflowError{Code: CodeAlreadyApproved, Message: "milestone already approved"}
	ErrAlreadyRated      = &WorkflowError{Code: CodeAlreadyRated, Message: "order already rated by this buyer"}
)

func notFound(entity string) error {
	return &WorkflowError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", entity)}
}

func forbidden(message string) error {
	return &WorkflowError{Code: CodeForbidden, Message: message}
}

func invalidTransition(format string, args ...interface{}) error {
	return &WorkflowError{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// lookupErr converts gorm's not-found into a workflow error and wraps anything else
func lookupErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

// isUniqueViolation works with both PostgreSQL and SQLite error texts
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
