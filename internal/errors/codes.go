package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents internal error codes for record operations
type ErrorCode int

const (
	// Success
	ErrCodeOK ErrorCode = 0

	// Caller errors (4xx equivalent)
	ErrCodeInvalidStart    ErrorCode = 1000
	ErrCodeInvalidColor    ErrorCode = 1001
	ErrCodeInvalidMetadata ErrorCode = 1002
	ErrCodeOverlap         ErrorCode = 1003
	ErrCodeInvalidRange    ErrorCode = 1004
	ErrCodeRecordNotFound  ErrorCode = 1005

	// Server errors (5xx equivalent)
	ErrCodeInternal       ErrorCode = 2000
	ErrCodeStoreFailed    ErrorCode = 2001
	ErrCodeNotification   ErrorCode = 2002
	ErrCodeRollbackFailed ErrorCode = 2003
)

// RecordError represents a structured error with code and context
type RecordError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *RecordError) Unwrap() error {
	return e.Cause
}

// NewRecordError creates a new RecordError
func NewRecordError(code ErrorCode, message string, cause error) *RecordError {
	return &RecordError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *RecordError) WithDetail(key string, value interface{}) *RecordError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func InvalidStart(start int64, reason string) *RecordError {
	return NewRecordError(ErrCodeInvalidStart, fmt.Sprintf("invalid start %d: %s", start, reason), nil).
		WithDetail("start", start).
		WithDetail("reason", reason)
}

func InvalidColor(color string) *RecordError {
	return NewRecordError(ErrCodeInvalidColor, fmt.Sprintf("invalid color %q, must be hex", color), nil).
		WithDetail("color", color)
}

func InvalidMetadata(reason string) *RecordError {
	return NewRecordError(ErrCodeInvalidMetadata, fmt.Sprintf("invalid metadata: %s", reason), nil).
		WithDetail("reason", reason)
}

func Overlap(scope string, start int64) *RecordError {
	return NewRecordError(ErrCodeOverlap, fmt.Sprintf("record already exists at start %d in scope %s", start, scope), nil).
		WithDetail("scope", scope).
		WithDetail("start", start)
}

func InvalidRange(start, stop int64) *RecordError {
	return NewRecordError(ErrCodeInvalidRange, fmt.Sprintf("invalid range: start %d is greater than stop %d", start, stop), nil).
		WithDetail("start", start).
		WithDetail("stop", stop)
}

func RecordNotFound(scope string, start int64) *RecordError {
	return NewRecordError(ErrCodeRecordNotFound, fmt.Sprintf("record not found at start %d in scope %s", start, scope), nil).
		WithDetail("scope", scope).
		WithDetail("start", start)
}

func StoreFailed(message string, cause error) *RecordError {
	return NewRecordError(ErrCodeStoreFailed, message, cause)
}

func NotificationFailed(scope, kind string, cause error) *RecordError {
	return NewRecordError(ErrCodeNotification, fmt.Sprintf("failed to notify %s event for scope %s", kind, scope), cause).
		WithDetail("scope", scope).
		WithDetail("kind", kind)
}

// RollbackFailed is raised when an update removed the old entry, failed to
// insert the new one, and the attempt to restore the old entry also failed.
// The record is lost from the store at this point.
func RollbackFailed(scope string, oldStart, newStart int64, cause error) *RecordError {
	return NewRecordError(ErrCodeRollbackFailed,
		fmt.Sprintf("update of record at start %d to %d in scope %s failed and rollback did not restore it", oldStart, newStart, scope), cause).
		WithDetail("scope", scope).
		WithDetail("old_start", oldStart).
		WithDetail("new_start", newStart)
}

func InternalError(message string, cause error) *RecordError {
	return NewRecordError(ErrCodeInternal, message, cause)
}

// IsRecordError checks if an error is a RecordError
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrCodeInternal
}

// IsValidation reports whether the error is a caller-input validation error
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidStart, ErrCodeInvalidColor, ErrCodeInvalidMetadata:
		return true
	default:
		return false
	}
}

// IsOverlap reports whether the error is an overlap conflict
func IsOverlap(err error) bool {
	return GetCode(err) == ErrCodeOverlap
}

// IsInvalidRange reports whether the error is an invalid range query error
func IsInvalidRange(err error) bool {
	return GetCode(err) == ErrCodeInvalidRange
}

// IsNotification reports whether the error occurred while appending to the
// event stream, after the store mutation already committed
func IsNotification(err error) bool {
	return GetCode(err) == ErrCodeNotification
}
