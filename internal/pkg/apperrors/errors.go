package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Schedule errors
var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrInvalidScope     = errors.New("invalid update scope for this schedule")
)

// Booking rejections. Each one is detected before anything is written.
var (
	ErrOutOfWindow              = errors.New("booking date is outside the registration window")
	ErrCapacityExceeded         = errors.New("organization capacity exceeded")
	ErrStudentConflict          = errors.New("student already has an overlapping booking")
	ErrMissingEnrollmentEndDate = errors.New("student has no class end date")
	ErrPastSchedule             = errors.New("schedule is in the past")
)

// Rejection codes returned to API clients.
const (
	CodeOutOfWindow              = "OUT_OF_WINDOW"
	CodeCapacityExceeded         = "CAPACITY_EXCEEDED"
	CodeStudentConflict          = "STUDENT_CONFLICT"
	CodeMissingEnrollmentEndDate = "MISSING_ENROLLMENT_END_DATE"
	CodePastSchedule             = "PAST_SCHEDULE"
)

var rejectionCodes = map[error]string{
	ErrOutOfWindow:              CodeOutOfWindow,
	ErrCapacityExceeded:         CodeCapacityExceeded,
	ErrStudentConflict:          CodeStudentConflict,
	ErrMissingEnrollmentEndDate: CodeMissingEnrollmentEndDate,
	ErrPastSchedule:             CodePastSchedule,
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewRejection builds a booking rejection around one of the rejection sentinels.
// The code is derived from the sentinel so callers cannot mismatch them.
func NewRejection(reason error, message string, details map[string]interface{}) *CustomError {
	return NewCustomError(reason, message).
		WithCode(rejectionCodes[reason]).
		WithDetails(details)
}

// RejectionReason returns the rejection code carried by err, if err is a booking rejection.
func RejectionReason(err error) (string, bool) {
	for sentinel, code := range rejectionCodes {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return "", false
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

