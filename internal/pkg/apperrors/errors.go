package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Question errors. ErrQuestionNotFound deliberately covers both "no such
// row" and "row owned by someone else" so unauthorized callers cannot probe
// for existence.
var (
	ErrQuestionNotFound  = errors.New("question not found or access denied")
	ErrDuplicateQuestion = errors.New("question text already exists")
	ErrSerialExists      = errors.New("serial number already exists")
	ErrAlreadyApproved   = errors.New("question already approved")
)

// Reference data errors
var (
	ErrYearExists            = errors.New("year already exists")
	ErrExamDateExists        = errors.New("exam date already exists for this year")
	ErrDefaultReferenceData  = errors.New("built-in reference data cannot be deleted")
	ErrReferencedByQuestions = errors.New("reference data is used by existing questions")
)

// Store errors
var (
	ErrTransactionFailed = errors.New("transaction failed")
)

// Classifier errors; recovered with a fallback difficulty on submission,
// never surfaced to the submitter.
var (
	ErrClassifierDisabled    = errors.New("classifier not configured")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// NewValidationError creates a validation failure with a caller-facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewConflictError creates a conflict error with a caller-facing message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
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

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
