package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInternalError("failed to get department", fmt.Errorf("connection reset"))
	assert.Equal(t, "INTERNAL: failed to get department: connection reset", err.Error())

	notFound := NewNotFoundError("department d-1 not found")
	assert.Equal(t, "NOT_FOUND: department d-1 not found", notFound.Error())
}

func TestHelpers_MatchWrappedErrors(t *testing.T) {
	base := NewCapacityError("no beds available in Cardiology")
	wrapped := fmt.Errorf("admit: %w", base)

	assert.True(t, IsCapacity(wrapped))
	assert.True(t, HasCode(wrapped, CodeNoBedsAvailable))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsCapacity(fmt.Errorf("plain")))
}

func TestWithCode_DoesNotMutateOriginal(t *testing.T) {
	base := NewNotFoundError("patient p-1 not found")
	coded := base.WithCode(CodePatientNotFound)

	assert.Empty(t, base.Code)
	assert.Equal(t, CodePatientNotFound, coded.Code)
	assert.True(t, IsNotFound(coded))
}

func TestNewInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError(CodePatientNotInAdmittedState, "patient is Discharged")
	assert.True(t, IsInvalidTransition(err))
	assert.True(t, HasCode(err, CodePatientNotInAdmittedState))
}
