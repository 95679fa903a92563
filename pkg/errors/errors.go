package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeCapacity indicates a department has no free bed
	ErrorTypeCapacity ErrorType = "CAPACITY"

	// ErrorTypeInvalidTransition indicates a patient lifecycle step that is not allowed
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Error codes carried alongside the type so clients can branch on the exact cause
const (
	CodeDepartmentNotFound         = "DEPARTMENT_NOT_FOUND"
	CodePatientNotFound            = "PATIENT_NOT_FOUND"
	CodeHospitalNotFound           = "HOSPITAL_NOT_FOUND"
	CodeNotificationNotFound       = "NOTIFICATION_NOT_FOUND"
	CodeNoBedsAvailable            = "NO_BEDS_AVAILABLE"
	CodePatientNotInUpcomingState  = "PATIENT_NOT_IN_UPCOMING_STATE"
	CodePatientNotInAdmittedState  = "PATIENT_NOT_IN_ADMITTED_STATE"
	CodePatientDepartmentMismatch  = "PATIENT_DEPARTMENT_MISMATCH"
	CodeConcurrentBedUpdate        = "CONCURRENT_BED_UPDATE"
	CodeConcurrentStatusTransition = "CONCURRENT_STATUS_TRANSITION"
	CodeDepartmentOccupied         = "DEPARTMENT_OCCUPIED"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode returns a copy of the error carrying the given code
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewCapacityError creates a new capacity error
func NewCapacityError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeCapacity,
		Code:    CodeNoBedsAvailable,
		Message: message,
	}
}

// NewInvalidTransitionError creates a new invalid lifecycle transition error
func NewInvalidTransitionError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Code:    code,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// HasCode reports whether err is an AppError carrying the given code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsCapacity reports whether err is a capacity error
func IsCapacity(err error) bool {
	return IsType(err, ErrorTypeCapacity)
}

// IsInvalidTransition reports whether err is an invalid lifecycle transition
func IsInvalidTransition(err error) bool {
	return IsType(err, ErrorTypeInvalidTransition)
}

// IsUnauthorized reports whether err is an unauthorized error
func IsUnauthorized(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}
