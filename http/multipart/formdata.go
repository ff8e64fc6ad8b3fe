package multipart

import (
	"github.com/indigo-web/exchange/http/mime"
	"github.com/indigo-web/exchange/internal/strutil"
	"github.com/indigo-web/exchange/kv"
)

// maxBoundaryLength is defined by RFC 2046, 5.1.1.
const maxBoundaryLength = 70

// Boundary extracts the boundary parameter from the Content-Type header value. False is
// returned if the value isn't a multipart type, the parameters are malformed or the
// boundary is absent, empty, too long or specified multiple times.
func Boundary(contentType string) (boundary string, ok bool) {
	if !mime.IsMultipart(contentType) {
		return "", false
	}

	for key, value := range strutil.WalkKV(strutil.CutParams(contentType)) {
		switch {
		case len(key) == 0:
			return "", false
		case strutil.CmpFold(key, "boundary"):
			if len(boundary) != 0 {
				return "", false
			}

			boundary = value
		}
	}

	return boundary, len(boundary) > 0 && len(boundary) <= maxBoundaryLength
}

// FormData interprets the part headers as a multipart/form-data entry. The content type
// defaults to text/plain if not specified. False is returned if the Content-Disposition
// header is missing, malformed or isn't form-data.
func FormData(headers *kv.Storage) (name, filename, contentType string, ok bool) {
	disposition, found := headers.Get("content-disposition")
	if !found {
		return "", "", "", false
	}

	value, params := strutil.CutHeader(disposition)
	if !strutil.CmpFold(value, "form-data") {
		return "", "", "", false
	}

	for key, value := range strutil.WalkKV(params) {
		switch {
		case len(key) == 0:
			return "", "", "", false
		case strutil.CmpFold(key, "name"):
			name = value
		case strutil.CmpFold(key, "filename"):
			filename = value
		}
	}

	if len(name) == 0 {
		return "", "", "", false
	}

	return name, filename, headers.ValueOr("content-type", mime.Plain), true
}
