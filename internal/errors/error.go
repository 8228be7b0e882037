package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryContract Category = "contract"
	CategoryHost     Category = "host"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryTree     Category = "tree"
	CategoryCLI      Category = "cli"
	CategoryStorage  Category = "storage"
)

// ReconcileError is a structured error with a registry code, the tree path
// it concerns, and a fix suggestion.
type ReconcileError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (contract, host, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path locates the offending node ("ul[3]/li[0]") or file.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReconcileError) Unwrap() error {
	return e.Wrapped
}

// WithPath records the tree path or file the error concerns.
func (e *ReconcileError) WithPath(path string) *ReconcileError {
	e.Path = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReconcileError) WithSuggestion(s string) *ReconcileError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ReconcileError) WithDetail(d string) *ReconcileError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ReconcileError) Wrap(err error) *ReconcileError {
	e.Wrapped = err
	return e
}

// New creates a ReconcileError from a registered error code.
func New(code string) *ReconcileError {
	template, ok := registry[code]
	if !ok {
		return &ReconcileError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReconcileError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new ReconcileError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReconcileError {
	return &ReconcileError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ReconcileError.
// An error that already is (or wraps) a ReconcileError is returned as is.
func FromError(err error, code string) *ReconcileError {
	if err == nil {
		return nil
	}
	var re *ReconcileError
	if stderrors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// Code returns the registry code of the first ReconcileError in err's chain.
func Code(err error) string {
	var re *ReconcileError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return ""
}
