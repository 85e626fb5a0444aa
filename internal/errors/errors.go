// Package errors provides a lightweight structured error type (ReleaseError)
// for category-based classification across release stages and the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a release error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Pre-flight errors: nothing has been mutated yet
	CategoryPrereq ErrorCategory = "prereq"

	// External system integration errors
	CategoryGit      ErrorCategory = "git"
	CategoryRegistry ErrorCategory = "registry"

	// Stage errors
	CategoryInstall   ErrorCategory = "install"
	CategoryTests     ErrorCategory = "tests"
	CategoryBump      ErrorCategory = "bump"
	CategoryPublish   ErrorCategory = "publish"
	CategoryTwoFactor ErrorCategory = "twofactor"
	CategoryDraft     ErrorCategory = "draft"

	// Recovery and infrastructure errors
	CategoryRollback ErrorCategory = "rollback"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ReleaseError is a structured error with category, retryability, and context
type ReleaseError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ReleaseError
type ContextFields map[string]any

// Error implements the error interface
func (e *ReleaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ReleaseError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ReleaseError) WithContext(key string, value any) *ReleaseError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ReleaseError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ReleaseError {
	return &ReleaseError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ReleaseError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ReleaseError {
	return &ReleaseError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if re, ok := err.(*ReleaseError); ok {
		return re.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ReleaseError
func GetCategory(err error) ErrorCategory {
	if re, ok := err.(*ReleaseError); ok {
		return re.Category
	}
	return CategoryInternal
}
