package http

import (
	"errors"
)

// Misuse of the API. These errors signal a bug in the calling code rather than a problem
// with the request.
var (
	ErrAlreadySent         = errors.New("response has been already sent")
	ErrInformAfterResponse = errors.New("informational response after the final one")
	ErrNotInformational    = errors.New("informational response must have a 1xx status code")
	ErrHeadersNotSent      = errors.New("streamed response wasn't started")
	ErrZeroLengthFile      = errors.New("file body must have an explicit non-zero length")
	ErrNoPart              = errors.New("no multipart part is being read")
	ErrInvalidCookie       = errors.New("cookie name or value contains forbidden characters")
)

// ErrInboxClosed is returned when the coordinator has gone away while the body was awaited.
var ErrInboxClosed = errors.New("connection coordinator is gone")
