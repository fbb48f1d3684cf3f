// Package errors defines structured error types for the document store.
package errors

import (
	"fmt"
)

// ErrorCode identifies the class of a store error.
type ErrorCode string

const (
	// ErrUnknownLocationKind is returned when a location kind is outside the defined set.
	ErrUnknownLocationKind ErrorCode = "UNKNOWN_LOCATION_KIND"
	// ErrStorageIO is returned when reading or writing the backing file or its directory fails.
	ErrStorageIO ErrorCode = "STORAGE_IO"
	// ErrMalformedDocument is returned when the backing file is not a JSON object.
	ErrMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"
	// ErrDeserialization is returned when a stored value does not convert to the requested type.
	ErrDeserialization ErrorCode = "DESERIALIZATION_FAILED"
	// ErrSerialization is returned when a value cannot be encoded as JSON.
	ErrSerialization ErrorCode = "SERIALIZATION_FAILED"
	// ErrInvalidArgument is returned when a caller passes an unusable argument.
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Sentinels usable with errors.Is; they match any *Error carrying the same code.
var (
	UnknownLocationKind    = &Error{code: ErrUnknownLocationKind, message: "unknown location kind"}
	StorageIOError         = &Error{code: ErrStorageIO, message: "storage I/O error"}
	MalformedDocumentError = &Error{code: ErrMalformedDocument, message: "malformed document"}
	DeserializationError   = &Error{code: ErrDeserialization, message: "deserialization failed"}
	SerializationError     = &Error{code: ErrSerialization, message: "serialization failed"}
	InvalidArgumentError   = &Error{code: ErrInvalidArgument, message: "invalid argument"}
)

// Error is a concrete error type with a code, message, optional details and a
// wrapped cause.
type Error struct {
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		code:    code,
		message: message,
		details: make(map[string]any),
	}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// Predefined error constructors for common cases

// UnknownKind creates an error for a location kind outside the defined set.
func UnknownKind(kind any) *Error {
	return New(ErrUnknownLocationKind, fmt.Sprintf("unknown location kind %v", kind)).WithDetail("kind", kind)
}

// StorageIO wraps a failure of op on path.
func StorageIO(op, path string, err error) *Error {
	return New(ErrStorageIO, fmt.Sprintf("failed to %s %s", op, path)).
		WithDetail("op", op).
		WithDetail("path", path).
		Wrap(err)
}

// Malformed reports that the file at path is not a JSON object.
func Malformed(path string, err error) *Error {
	return New(ErrMalformedDocument, fmt.Sprintf("%s is not a JSON object", path)).
		WithDetail("path", path).
		Wrap(err)
}

// Deserialization reports that the value at key does not decode into typ.
func Deserialization(key, typ string, err error) *Error {
	return New(ErrDeserialization, fmt.Sprintf("value at %q does not decode into %s", key, typ)).
		WithDetail("key", key).
		WithDetail("type", typ).
		Wrap(err)
}

// Serialization reports that the value for key could not be encoded.
func Serialization(key string, err error) *Error {
	return New(ErrSerialization, fmt.Sprintf("value for %q is not representable as JSON", key)).
		WithDetail("key", key).
		Wrap(err)
}

// BadArgument creates an invalid argument error.
func BadArgument(message string) *Error {
	return New(ErrInvalidArgument, message)
}
