package status

import (
	"errors"
	"fmt"
)

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// Malformed input.
var (
	ErrBadRequest         = NewError(BadRequest, "bad request")
	ErrURLDecoding        = NewError(BadRequest, "invalid urlencoded sequence")
	ErrBadQuery           = NewError(BadRequest, "malformed query string")
	ErrBadCookie          = NewError(BadRequest, "cookie has a malformed syntax")
	ErrMalformedMultipart = NewError(BadRequest, "malformed multipart body")
	ErrMissingBoundary    = NewError(BadRequest, "multipart boundary is not specified")
	ErrBadJSON            = NewError(BadRequest, "malformed JSON body")
)

// Validation.
var (
	ErrValidationFailed = NewError(BadRequest, "validation failed")
)

// Resources.
var (
	ErrBodyTooLarge    = NewError(RequestEntityTooLarge, "request body is too large")
	ErrBodyReadTimeout = NewError(RequestTimeout, "timed out waiting for the request body")
)

var (
	ErrUnsupportedMediaType = NewError(UnsupportedMediaType, "unsupported media type")
	ErrInternalServerError  = NewError(InternalServerError, "internal server error")
)

// MalformedError carries the name of the field or header which failed to be parsed.
type MalformedError struct {
	Field   string
	Message string
	// Cause is one of the sentinel errors above, ErrBadRequest if not set.
	Cause error
}

// Malformed returns a new MalformedError caused by the sentinel error.
func Malformed(field string, cause error, format string, args ...any) error {
	return &MalformedError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func (m *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: %s", m.Field, m.Message)
}

func (m *MalformedError) Unwrap() error {
	if m.Cause == nil {
		return ErrBadRequest
	}

	return m.Cause
}

// CodeOf returns a status code the error must be answered with. Errors which don't wrap
// an HTTPError result in InternalServerError.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}
