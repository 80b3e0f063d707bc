package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
	ErrConfiguration = errors.New("configuration unavailable")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// RejectedDocumentError signals that the extraction service judged the
// content not to be a business document. It is the only document-level
// hard stop in the pipeline: normalization and upsert are skipped, and
// the reason is surfaced to the caller.
type RejectedDocumentError struct {
	Reason string
}

func (e *RejectedDocumentError) Error() string {
	return fmt.Sprintf("rejected document: %s", e.Reason)
}

// IsRejectedDocument reports whether err is (or wraps) a document rejection.
func IsRejectedDocument(err error) (*RejectedDocumentError, bool) {
	var re *RejectedDocumentError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
