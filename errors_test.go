package eav

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEAVErrorMessage(t *testing.T) {
	err := NewValidationError(ErrCodeInvalidPage, "page", "page must be 1 or greater")
	assert.Equal(t, "[validation:INVALID_PAGE] field 'page': page must be 1 or greater", err.Error())

	cause := errors.New("dial tcp: refused")
	conn := NewConnectionError(cause)
	assert.Equal(t, "[connection:CONNECTION_FAILED] failed to connect to value store: dial tcp: refused", conn.Error())
	assert.Same(t, cause, errors.Unwrap(conn))
}

func TestEAVErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("fetch entity: %w", NewNotFoundError("entity", int64(4)))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStore)
	assert.Equal(t, ErrorTypeNotFound, KindOf(err))
	assert.Equal(t, ErrorType(""), KindOf(errors.New("plain")))

	// Sentinels with a code only match that code.
	assert.ErrorIs(t, err, &EAVError{Type: ErrorTypeNotFound, Code: ErrCodeNotFound})
	assert.NotErrorIs(t, err, &EAVError{Type: ErrorTypeNotFound, Code: ErrCodeQueryFailed})
}

func TestErrorConstructors(t *testing.T) {
	attr := Attribute{ID: 3, Name: "weight", ValueType: ValueTypeFloat}
	mismatch := NewTypeMismatchError(attr, "expects a float")
	assert.ErrorIs(t, mismatch, ErrTypeMismatch)
	assert.Equal(t, "weight", mismatch.Field)
	assert.Equal(t, int64(3), mismatch.Details["attr_id"])
	assert.Equal(t, "float", mismatch.Details["value_type"])

	op := NewInvalidOperatorError("=")
	assert.ErrorIs(t, op, ErrInvalidOperator)
	assert.Equal(t, "=", op.Details["operator"])

	storeErr := NewStoreError("list entities", errors.New("syntax error"))
	assert.ErrorIs(t, storeErr, ErrStore)
	assert.Equal(t, "list entities", storeErr.Details["operation"])

	assert.ErrorIs(t, NewNotConnectedError(), ErrNotConnected)

	var target *EAVError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", storeErr), &target)
	assert.Equal(t, ErrCodeQueryFailed, target.Code)
}
