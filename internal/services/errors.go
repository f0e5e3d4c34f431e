package services

import (
	"errors"

	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrNoModuleVersion means the assignment is not linked to a module
	// version, so the quiz size is unknown. Fatal for that one
	// user+assignment; never retried silently.
	ErrNoModuleVersion = errors.New("assignment has no linked module version")

	// ErrQuizSizeUnknown means answer events exist for a module that
	// reports zero quiz questions. The resulting grade would be
	// nonsensical, so computation refuses.
	ErrQuizSizeUnknown = errors.New("module reports no quiz questions but answers exist")
)

// IsConfigurationError reports whether err is a per-assignment
// configuration problem that batch sweeps skip rather than abort on.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoModuleVersion) || errors.Is(err, ErrQuizSizeUnknown)
}

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string, value interface{}) error {
	return validator.ValidationErrors{{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}}
}

// IsValidationError reports whether err carries validation failures.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
