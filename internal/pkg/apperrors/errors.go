package apperrors

import "errors"

// Common errors
var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrNilAggregate     = errors.New("aggregate is nil")
	ErrInvalidScore     = errors.New("wellbeing score must be between 0 and 10")
	ErrEmptyContent     = errors.New("message content is required")
	ErrUsernameTaken    = errors.New("username already in use")
	ErrNoSupervisor     = errors.New("student has no assigned personal supervisor")
	ErrInvalidYearGroup = errors.New("year group must be between 1 and 4")

	// Reference errors: a cross-aggregate operation named an entity that
	// does not exist. Distinct from plain lookups, which report absence
	// with a nil result instead of an error.
	ErrReference           = errors.New("referenced entity not found")
	ErrStudentReference    = errors.New("referenced student not found")
	ErrSupervisorReference = errors.New("referenced supervisor not found")
	ErrMessageReference    = errors.New("referenced message not found")
	ErrAlertReference      = errors.New("referenced alert not found")

	// Code generator errors
	ErrCodeSpaceExhausted = errors.New("unique code space exhausted")

	// Credential errors
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrSecurityAnswerMismatch = errors.New("security answer does not match")
	ErrNoSecurityQuestion     = errors.New("no security question set for this user")

	// Messaging errors
	ErrNotMessageSender = errors.New("only the original sender may modify a message")
)

// CustomError carries a human-readable message alongside the sentinel it wraps.
type CustomError struct {
	Err     error
	Message string
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap so errors.Is matching still works.
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps ErrValidation with a field-specific message.
func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidation, Message: message}
}

// NewReferenceError wraps ErrReference with context about the missing entity.
func NewReferenceError(message string) error {
	return &CustomError{Err: ErrReference, Message: message}
}

// NewCustomError creates a CustomError with an underlying sentinel.
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}
