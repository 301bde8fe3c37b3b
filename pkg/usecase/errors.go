package usecase

import (
	"errors"
	"fmt"
)

// Sentinel errors for use case layer
var (
	// User-correctable input errors
	ErrValidation = errors.New("validation failed")
	ErrIdentifier = errors.New("malformed merge source identifier")

	// Datastore errors
	ErrLookup      = errors.New("unable to check existing risks")
	ErrPersistence = errors.New("failed to submit risk report")

	// Not found errors
	ErrReportNotFound = errors.New("report not found")

	// Access control errors
	ErrAccessDenied = errors.New("access denied")

	// Workflow errors
	ErrNotMergeEligible         = errors.New("report is not merge eligible")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrInsufficientMergeSources = errors.New("at least two reports are required to merge")
)

// Context keys for error values
const (
	ReportIDKey  = "report_id"
	RiskIDKey    = "risk_id"
	SessionIDKey = "session_id"
)

// ValidationError is a rejected submission field with a message meant for the submitter
type ValidationError struct {
	Field   string
	Message string

	identifier bool
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func newIdentifierError(field, format string, args ...any) *ValidationError {
	e := newValidationError(field, format, args...)
	e.identifier = true
	return e
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap makes the error match ErrValidation, and ErrIdentifier for merge source problems
func (e *ValidationError) Unwrap() []error {
	if e.identifier {
		return []error{ErrValidation, ErrIdentifier}
	}
	return []error{ErrValidation}
}
