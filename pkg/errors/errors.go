// Package errors provides structured error types for rmrender.
//
// This package defines error codes and types that enable:
//   - Per-page failure reporting in multi-page batches
//   - Machine-readable error codes for the CLI and the HTTP API
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into three groups:
//   - Source errors: SOURCE_MISSING, FILE_NOT_FOUND, NOT_FOUND
//   - Decoding errors: FORMAT_MISMATCH, UNSUPPORTED_VERSION,
//     UNKNOWN_BLOCK_KIND, UNKNOWN_PEN_KIND, TEMPLATE_UNRESOLVED
//   - Input and internal errors: INVALID_*, INTERNAL_ERROR, UNSUPPORTED
//
// UNKNOWN_BLOCK_KIND, UNKNOWN_PEN_KIND and TEMPLATE_UNRESOLVED are never
// returned to callers; they label log entries for conditions that are absorbed
// with a fallback.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFormatMismatch, "highlight layers: got %d, want %d", n, m)
//	if errors.Is(err, errors.ErrCodeFormatMismatch) {
//	    // Report the page as failed, keep rendering its siblings
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFormatMismatch, origErr, "read page %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Source errors
	ErrCodeSourceMissing Code = "SOURCE_MISSING"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Decoding errors
	ErrCodeFormatMismatch     Code = "FORMAT_MISMATCH"
	ErrCodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"
	ErrCodeUnknownBlockKind   Code = "UNKNOWN_BLOCK_KIND"
	ErrCodeUnknownPenKind     Code = "UNKNOWN_PEN_KIND"
	ErrCodeTemplateUnresolved Code = "TEMPLATE_UNRESOLVED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidPageID Code = "INVALID_PAGE_ID"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// PageError ties an error to the page it occurred on.
// Batch rendering reports one PageError per failed page.
type PageError struct {
	Index int    // 0-based page number
	ID    string // Page identifier from the document content file
	Err   error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("page %d (%s): %v", e.Index+1, e.ID, e.Err)
	}
	return fmt.Sprintf("page %d: %v", e.Index+1, e.Err)
}

// Unwrap returns the page's underlying error.
func (e *PageError) Unwrap() error { return e.Err }

// Code returns the code of the underlying error, if any.
func (e *PageError) Code() Code {
	return GetCode(e.Err)
}
