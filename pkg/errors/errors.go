// Package errors provides the typed error kinds surfaced by the
// volumetric storage engine's core.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Common sentinel errors for conditions with no further context to attach.
var (
	ErrNotFound     = stderrors.New("resource not found")
	ErrInvalidInput = stderrors.New("invalid input")
)

// ErrorCode represents an error code surfaced by the storage engine,
// covering block/codec/data-store/engine failure kinds.
type ErrorCode string

const (
	// CodeUnknownScale: scale key not in manifest/index.
	CodeUnknownScale ErrorCode = "UNKNOWN_SCALE"
	// CodeUnknownEncoding: manifest encoding string has no matching codec.
	CodeUnknownEncoding ErrorCode = "UNKNOWN_ENCODING"
	// CodeUnknownDataType: manifest data_type string has no matching dtype.
	CodeUnknownDataType ErrorCode = "UNKNOWN_DATA_TYPE"
	// CodeTypeMismatch: add/get called with T not matching the block dtype.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// CodeIOFailure: data-store read or write error.
	CodeIOFailure ErrorCode = "IO_FAILURE"
	// CodeDecodeFailure: codec-level decode error.
	CodeDecodeFailure ErrorCode = "DECODE_FAILURE"
	// CodeEncodeFailure: codec-level encode error.
	CodeEncodeFailure ErrorCode = "ENCODE_FAILURE"
	// CodeEncodingMismatch: compressed-segmentation given a non-u32/u64 dtype.
	CodeEncodingMismatch ErrorCode = "ENCODING_MISMATCH"
	// CodeUnsupported: JPEG decode, or an operation a backend doesn't implement.
	CodeUnsupported ErrorCode = "UNSUPPORTED"
	// CodeNotFound: resource (manifest entry, CLI target) not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
	// CodeInvalidInput: malformed request input (bad cutout range, etc).
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// AppError represents an application error with code and context.
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error { return e.Err }

// New creates a new application error with no wrapped cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Details: make(map[string]interface{})}
}

// Wrap creates a new application error wrapping err.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err, Details: make(map[string]interface{})}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
