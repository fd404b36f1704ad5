// Package dsserrors defines the error taxonomy used across the deep shape store.
package dsserrors

import (
	"errors"
	"fmt"
)

// Error codes for the deep shape store.
const (
	CodeStoreLost       = "STORE_LOST"
	CodeNotDeep         = "NOT_DEEP"
	CodeNotSingular     = "NOT_SINGULAR"
	CodeEmptyLayout     = "EMPTY_LAYOUT"
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	CodeBuilderFailure  = "BUILDER_FAILURE"
)

// AppError represents a store error with a code, message and optional cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Sentinel errors for the taxonomy in spec section 7.
var (
	// ErrStoreLost is surfaced when a DeepLayer handle is used after its
	// store was destroyed.
	ErrStoreLost = New(CodeStoreLost, "the shape store container no longer exists")
	// ErrNotDeep is surfaced when a region handed to DeepLayer is not backed
	// by a deep representation.
	ErrNotDeep = New(CodeNotDeep, "region is not backed by a deep layer")
	// ErrNotSingular is surfaced when an operator requires a single working
	// layout but the store holds more than one.
	ErrNotSingular = New(CodeNotSingular, "deep shape store is not singular")
	// ErrEmptyLayout is surfaced when an operation requires a top cell on a
	// layout that has none.
	ErrEmptyLayout = New(CodeEmptyLayout, "layout has no cells")
	// ErrIndexOutOfRange is surfaced for an invalid layout or layer index.
	ErrIndexOutOfRange = New(CodeIndexOutOfRange, "index out of range")
	// ErrBuilderFailure wraps anything thrown while draining a recursive
	// shape iterator into the hierarchy builder.
	ErrBuilderFailure = New(CodeBuilderFailure, "hierarchy builder failed")
)

// IsStoreLost reports whether err is (or wraps) ErrStoreLost.
func IsStoreLost(err error) bool { return errors.Is(err, ErrStoreLost) }

// IsNotDeep reports whether err is (or wraps) ErrNotDeep.
func IsNotDeep(err error) bool { return errors.Is(err, ErrNotDeep) }

// IsNotSingular reports whether err is (or wraps) ErrNotSingular.
func IsNotSingular(err error) bool { return errors.Is(err, ErrNotSingular) }

// IsEmptyLayout reports whether err is (or wraps) ErrEmptyLayout.
func IsEmptyLayout(err error) bool { return errors.Is(err, ErrEmptyLayout) }

// IsIndexOutOfRange reports whether err is (or wraps) ErrIndexOutOfRange.
func IsIndexOutOfRange(err error) bool { return errors.Is(err, ErrIndexOutOfRange) }

// IsBuilderFailure reports whether err is (or wraps) ErrBuilderFailure.
func IsBuilderFailure(err error) bool { return errors.Is(err, ErrBuilderFailure) }

// Code extracts the error code from an error, or "" if the error does not
// carry one.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
