package query

import (
	"strings"

	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/internal/urlencoded"
	"github.com/indigo-web/exchange/kv"
)

// DefaultFlagValue replaces the value of parameters which have no equal sign, e.g. `?debug`.
const DefaultFlagValue = "1"

type Params = *kv.Storage

// Parse parses a query string (or an application/x-www-form-urlencoded body) into the
// params, preserving the order and duplicates. Keys and values are decoded separately,
// so encoded ampersands and equal signs don't break the pairs. Empty segments are skipped.
// Parameters without an equal sign get flagValue as their value.
func Parse(into Params, raw, flagValue string) error {
	var buff []byte

	for len(raw) > 0 {
		var segment string

		if amp := strings.IndexByte(raw, '&'); amp != -1 {
			segment, raw = raw[:amp], raw[amp+1:]
		} else {
			segment, raw = raw, ""
		}

		if len(segment) == 0 {
			continue
		}

		key, value, hasValue := strings.Cut(segment, "=")
		if len(key) == 0 {
			return status.Malformed("query", status.ErrBadQuery, "parameter without a name")
		}

		var err error

		key, buff, err = urlencoded.ExtendedDecodeString(key, buff)
		if err != nil {
			return status.Malformed("query", status.ErrBadQuery, "bad encoding of %q", segment)
		}

		if !hasValue {
			into.Add(key, flagValue)
			continue
		}

		value, buff, err = urlencoded.ExtendedDecodeString(value, buff)
		if err != nil {
			return status.Malformed("query", status.ErrBadQuery, "bad encoding of %q", segment)
		}

		into.Add(key, value)
	}

	return nil
}
