// Package apperr defines the error taxonomy shared by the dispatcher, the
// engines and the HTTP layer. Every error carries a Kind that decides whether
// it is returned to the caller synchronously or recorded on a failed job, and
// which HTTP status the API answers with.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindUnimplemented Kind = "unimplemented"
	KindTransport     Kind = "transport"
	KindConfiguration Kind = "configuration"
	KindInternal      Kind = "internal"
)

// Machine-readable codes returned in API error bodies.
const (
	CodeInvalidInput     = "ERR_INVALID_INPUT"
	CodeInvalidEngine    = "ERR_INVALID_ENGINE"
	CodeNoAudio          = "ERR_NO_AUDIO"
	CodeNotFound         = "ERR_NOT_FOUND"
	CodeUnimplemented    = "ERR_ENGINE_UNIMPLEMENTED"
	CodeEngineOffline    = "ERR_ENGINE_OFFLINE"
	CodeTransport        = "ERR_TRANSPORT"
	CodeNotConfigured    = "ERR_NOT_CONFIGURED"
	CodeInternal         = "ERR_INTERNAL"
	CodeFileTooLarge     = "ERR_FILE_TOO_LARGE"
	CodeUnsupportedAudio = "ERR_INVALID_FORMAT"
)

var kindStatus = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindNotFound:      http.StatusNotFound,
	KindUnimplemented: http.StatusNotImplemented,
	KindTransport:     http.StatusBadGateway,
	KindConfiguration: http.StatusServiceUnavailable,
	KindInternal:      http.StatusInternalServerError,
}

// Error is the unified application error type.
type Error struct {
	Kind    Kind           `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus is the status code the API answers with for this error.
func (e *Error) HTTPStatus() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCode overrides the machine-readable code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// Validation creates an error for malformed or unknown input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates an error for a referenced resource that does not exist.
func NotFound(resource, id string) *Error {
	e := &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
	if id != "" {
		e.WithDetail("id", id)
	}
	return e.WithDetail("resource", resource)
}

// Unimplemented creates an error for a recognised engine with no working implementation.
func Unimplemented(engine string) *Error {
	return &Error{
		Kind:    KindUnimplemented,
		Code:    CodeUnimplemented,
		Message: fmt.Sprintf("engine %s is not implemented", engine),
		Details: map[string]any{"engine": engine},
	}
}

// Transport creates an error for a failed download, provider call or store request.
func Transport(operation string, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Code:    CodeTransport,
		Message: operation + " failed",
		Details: map[string]any{"operation": operation},
		Cause:   cause,
	}
}

// Configuration creates an error for a missing credential or setting.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Code: CodeNotConfigured, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// HTTPStatus maps any error to a response status.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
