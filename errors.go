package eav

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeNotConnected    ErrorType = "not_connected"
	ErrorTypeConnection      ErrorType = "connection"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeTypeMismatch    ErrorType = "type_mismatch"
	ErrorTypeInvalidOperator ErrorType = "invalid_operator"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeStore           ErrorType = "store"
)

// EAVError is the single error type returned by Store operations.
type EAVError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *EAVError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EAVError) Unwrap() error {
	return e.Cause
}

// Is matches any *EAVError of the same Type, so callers can test kinds with
// errors.Is(err, eav.ErrNotFound).
func (e *EAVError) Is(target error) bool {
	var t *EAVError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type && (t.Code == "" || t.Code == e.Code)
}

// WithDetail adds a single detail
func (e *EAVError) WithDetail(key string, value any) *EAVError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause
func (e *EAVError) WithCause(cause error) *EAVError {
	e.Cause = cause
	return e
}

// WithField adds field context
func (e *EAVError) WithField(field string) *EAVError {
	e.Field = field
	return e
}

const (
	ErrCodeNotConnected     = "NOT_CONNECTED"
	ErrCodeConnectionFailed = "CONNECTION_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTypeMismatch     = "TYPE_MISMATCH"
	ErrCodeEntityMismatch   = "ENTITY_TYPE_MISMATCH"
	ErrCodeInvalidOperator  = "INVALID_OPERATOR"
	ErrCodeInvalidValue     = "INVALID_VALUE"
	ErrCodeInvalidValueType = "INVALID_VALUE_TYPE"
	ErrCodeInvalidPage      = "INVALID_PAGE"
	ErrCodeInvalidName      = "INVALID_NAME"
	ErrCodeQueryFailed      = "QUERY_FAILED"
	ErrCodeTransaction      = "TRANSACTION_FAILED"
)

// Sentinels for errors.Is checks. They match on Type only.
var (
	ErrNotConnected    = &EAVError{Type: ErrorTypeNotConnected}
	ErrConnection      = &EAVError{Type: ErrorTypeConnection}
	ErrNotFound        = &EAVError{Type: ErrorTypeNotFound}
	ErrTypeMismatch    = &EAVError{Type: ErrorTypeTypeMismatch}
	ErrInvalidOperator = &EAVError{Type: ErrorTypeInvalidOperator}
	ErrValidation      = &EAVError{Type: ErrorTypeValidation}
	ErrStore           = &EAVError{Type: ErrorTypeStore}
)

// NewEAVError creates a new EAVError
func NewEAVError(errorType ErrorType, code, message string) *EAVError {
	return &EAVError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

func NewNotConnectedError() *EAVError {
	return NewEAVError(ErrorTypeNotConnected, ErrCodeNotConnected, "store is not connected")
}

func NewConnectionError(cause error) *EAVError {
	return NewEAVError(ErrorTypeConnection, ErrCodeConnectionFailed, "failed to connect to value store").WithCause(cause)
}

// NewNotFoundError reports a missing row of the given kind ("entity", "attribute", ...).
func NewNotFoundError(kind string, id any) *EAVError {
	return NewEAVError(ErrorTypeNotFound, ErrCodeNotFound, fmt.Sprintf("%s %v not found", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

func NewTypeMismatchError(attr Attribute, message string) *EAVError {
	return NewEAVError(ErrorTypeTypeMismatch, ErrCodeTypeMismatch, message).
		WithField(attr.Name).
		WithDetail("attr_id", attr.ID).
		WithDetail("value_type", string(attr.ValueType))
}

func NewInvalidOperatorError(op string) *EAVError {
	return NewEAVError(ErrorTypeInvalidOperator, ErrCodeInvalidOperator, fmt.Sprintf("unsupported comparison operator %q", op)).
		WithDetail("operator", op)
}

func NewValidationError(code, field, message string) *EAVError {
	return NewEAVError(ErrorTypeValidation, code, message).WithField(field)
}

// NewStoreError wraps an underlying query failure.
func NewStoreError(operation string, cause error) *EAVError {
	return NewEAVError(ErrorTypeStore, ErrCodeQueryFailed, operation+" failed").
		WithDetail("operation", operation).
		WithCause(cause)
}

// KindOf returns the ErrorType carried by err, or "" when err is not an *EAVError.
func KindOf(err error) ErrorType {
	var e *EAVError
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
