package cookie

import (
	"strconv"
	"time"

	"github.com/indigo-web/exchange/internal/strutil"
	"github.com/valyala/bytebufferpool"
)

type Cookie struct {
	Name    string
	Value   string
	Path    string
	Domain  string
	Expires time.Time
	// MaxAge defines a delta in seconds, when the cookie should be dropped.
	// Note, that zero is treated as a zero-value, so will be ignored. In order
	// to be added with a value of zero, it must be negative. -1 is the conventional
	// value for this purpose
	MaxAge   int
	SameSite SameSite
	Secure   bool
	HttpOnly bool
}

func New(name, value string) Cookie {
	return Cookie{Name: name, Value: value}
}

type Builder struct {
	cookie Cookie
}

// Build is a chainable constructor for cookies. A preferred way of instantiation
func Build(name, value string) Builder {
	return Builder{New(name, value)}
}

func (b Builder) Path(path string) Builder {
	b.cookie.Path = path
	return b
}

func (b Builder) Domain(domain string) Builder {
	b.cookie.Domain = domain
	return b
}

func (b Builder) Expires(expires time.Time) Builder {
	b.cookie.Expires = expires
	return b
}

// MaxAge defines a delta in seconds, when the cookie should be dropped.
// Note, that zero is treated as a zero-value, so will be ignored. In order
// to be added with a value of zero, it must be negative. -1 is the conventional
// value for this purpose
func (b Builder) MaxAge(maxAge int) Builder {
	b.cookie.MaxAge = maxAge
	return b
}

func (b Builder) SameSite(sameSite SameSite) Builder {
	b.cookie.SameSite = sameSite
	return b
}

func (b Builder) Secure(secure bool) Builder {
	b.cookie.Secure = secure
	return b
}

func (b Builder) HttpOnly(httpOnly bool) Builder {
	b.cookie.HttpOnly = httpOnly
	return b
}

// Cookie returns the built cookie instance
func (b Builder) Cookie() Cookie {
	return b.cookie
}

type SameSite = string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)

// TimeFormat is the IMF-fixdate format used in the Expires attribute.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Valid reports whether the cookie can be rendered. The name must be a token and
// the value mustn't contain separators breaking the Set-Cookie syntax.
func (c Cookie) Valid() bool {
	if len(c.Name) == 0 {
		return false
	}

	for i := 0; i < len(c.Name); i++ {
		switch c.Name[i] {
		case '=', ';', ',', ' ', '\t', '\r', '\n', '"':
			return false
		}
	}

	for i := 0; i < len(c.Value); i++ {
		switch ch := c.Value[i]; {
		case ch == ';' || ch == ',' || ch == '\\' || ch == '"':
			return false
		case ch < 0x20 || ch == 0x7f:
			return false
		}
	}

	return true
}

// Render returns the cookie as a Set-Cookie header value.
func (c Cookie) Render() string {
	buff := bytebufferpool.Get()
	defer bytebufferpool.Put(buff)

	_, _ = buff.WriteString(c.Name)
	_ = buff.WriteByte('=')
	_, _ = buff.WriteString(c.Value)

	if len(c.Path) > 0 {
		_, _ = buff.WriteString("; Path=")
		_, _ = buff.WriteString(c.Path)
	}

	if len(c.Domain) > 0 {
		_, _ = buff.WriteString("; Domain=")
		_, _ = buff.WriteString(strutil.StripWS(c.Domain))
	}

	if !c.Expires.IsZero() {
		_, _ = buff.WriteString("; Expires=")
		buff.B = c.Expires.UTC().AppendFormat(buff.B, TimeFormat)
	}

	switch {
	case c.MaxAge > 0:
		_, _ = buff.WriteString("; Max-Age=")
		buff.B = strconv.AppendInt(buff.B, int64(c.MaxAge), 10)
	case c.MaxAge < 0:
		_, _ = buff.WriteString("; Max-Age=0")
	}

	if len(c.SameSite) > 0 {
		_, _ = buff.WriteString("; SameSite=")
		_, _ = buff.WriteString(c.SameSite)
	}

	if c.Secure {
		_, _ = buff.WriteString("; Secure")
	}

	if c.HttpOnly {
		_, _ = buff.WriteString("; HttpOnly")
	}

	return buff.String()
}
