package cookie

import (
	"strings"

	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/internal/strutil"
	"github.com/indigo-web/exchange/kv"
)

// Jar is a key-value storage for cookies. Key-value pairs consists of strings,
// not cookie.Cookie, as it would lead to space wasting and require a separate
// data structure
type Jar = *kv.Storage

func NewJar() Jar {
	return kv.New()
}

// Parse parses cookies, received from a user-agent. These are basically key-value pairs,
// so the function isn't applicable for Set-Cookie values. Pairs are added in their
// original order, duplicates included.
func Parse(jar Jar, data string) error {
	data = strutil.StripWS(data)

	for len(data) > 0 {
		eq := strings.IndexByte(data, '=')
		if eq == -1 {
			return status.ErrBadCookie
		}

		key := strutil.RStripWS(data[:eq])
		data = data[eq+1:]

		if len(key) == 0 || strings.ContainsAny(key, "; \t") {
			return status.ErrBadCookie
		}

		var value string

		if cs := strings.IndexByte(data, ';'); cs != -1 {
			value, data = data[:cs], strutil.LStripWS(data[cs+1:])
		} else {
			value, data = data, ""
		}

		// empty value is fine
		jar.Add(key, strutil.Unquote(strutil.StripWS(value)))
	}

	return nil
}
