package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed client error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones and wraps of a
// sentinel still match it through errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the client taxonomy.
var (
	ErrAuthentication = New("AUTHENTICATION_FAILED", http.StatusUnauthorized, "login failed, please check your credentials")
	ErrSessionExpired = New("SESSION_EXPIRED", http.StatusUnauthorized, "session expired, please re-authenticate")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrFetch          = New("FETCH_ERROR", http.StatusBadGateway, "request failed")
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrCacheMiss      = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Fields != nil {
		clone.Fields = make(map[string]string, len(err.Fields))
		for k, v := range err.Fields {
			clone.Fields[k] = v
		}
	}
	return &clone
}

// Validation builds a validation error carrying field-level messages.
func Validation(message string, fields map[string]string) *Error {
	e := Clone(ErrValidation, message)
	e.Fields = fields
	return e
}

// Fetch wraps a transport or HTTP failure. Status 0 means no response was received.
func Fetch(err error, status int, message string) *Error {
	e := Wrap(err, ErrFetch.Code, status, message)
	if e.Message == "" {
		e.Message = ErrFetch.Message
	}
	return e
}

// FieldsOf returns the field messages of a validation error, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrValidation.Code {
		return e.Fields
	}
	return nil
}

// HasCode reports whether err (or anything it wraps) carries the provided code.
func HasCode(err error, code string) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.Err
			continue
		}
		return false
	}
	return false
}
