package mime

import (
	"github.com/indigo-web/exchange/internal/strutil"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	MultipartMixed MIME = "multipart/mixed"
)

// Complies returns whether two MIMEs are compatible. Empty MIME is
// considered compatible with any other MIME
func Complies(mime MIME, with string) bool {
	// get rid of parameters if any
	with, _ = strutil.CutHeader(with)
	return len(with) == 0 || strutil.CmpFold(with, mime)
}

// IsMultipart tells whether the content type belongs to the multipart family.
func IsMultipart(contentType string) bool {
	const prefix = "multipart/"

	value, _ := strutil.CutHeader(contentType)
	return len(value) > len(prefix) && strutil.CmpFold(value[:len(prefix)], prefix)
}
