package strutil

import (
	"iter"
)

// tokenChars is the tchar set from RFC 9110, 5.6.2.
var tokenChars = [256]bool{
	'!': true, '#': true, '$': true, '%': true, '&': true, '\'': true, '*': true,
	'+': true, '-': true, '.': true, '^': true, '_': true, '`': true, '|': true, '~': true,
	'0': true, '1': true, '2': true, '3': true, '4': true, '5': true, '6': true, '7': true,
	'8': true, '9': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true, 'h': true,
	'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true, 'o': true, 'p': true,
	'q': true, 'r': true, 's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true, 'H': true,
	'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true, 'O': true, 'P': true,
	'Q': true, 'R': true, 'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true,
	'Y': true, 'Z': true,
}

// valueChars additionally permits characters that are commonly seen unquoted in boundary
// and filename parameters, even though they aren't tokens strictly speaking.
var valueChars = func() (set [256]bool) {
	set = tokenChars
	for _, c := range "()/:=?,@[]{}" {
		set[c] = true
	}

	return set
}()

// WalkKV iterates over header parameters in the form of `key=value; key="quoted value"`.
// Quoted values are returned without quotes and with quoted-pairs unescaped. Keys are
// yielded as-is, so comparison must be done case-insensitively. On malformed input an
// empty pair is yielded and the iteration stops.
func WalkKV(data string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		data := data

		for {
			data = LStripWS(data)
			if len(data) == 0 {
				return
			}

			var key string

			for i := 0; i < len(data); i++ {
				c := data[i]
				if c == '=' {
					key, data = data[:i], data[i+1:]
					break
				}

				if !tokenChars[c] {
					yield("", "")
					return
				}
			}

			if len(key) == 0 {
				// either a flag parameter without value or a leading equal sign.
				yield("", "")
				return
			}

			var (
				value string
				ok    bool
			)

			if len(data) > 0 && data[0] == '"' {
				value, data, ok = cutQuoted(data[1:])
			} else {
				value, data, ok = cutValue(data)
			}

			if !ok {
				yield("", "")
				return
			}

			if !yield(key, value) {
				return
			}
		}
	}
}

func cutValue(data string) (value, rest string, ok bool) {
	for i := 0; i < len(data); i++ {
		switch c := data[i]; {
		case c == ';':
			return RStripWS(data[:i]), data[i+1:], true
		case c == ' ' || c == '\t':
			tail := LStripWS(data[i:])
			if len(tail) > 0 && tail[0] != ';' {
				return "", "", false
			}

			if len(tail) == 0 {
				return data[:i], "", true
			}

			return data[:i], tail[1:], true
		case !valueChars[c]:
			return "", "", false
		}
	}

	return data, "", true
}

func cutQuoted(data string) (value, rest string, ok bool) {
	var (
		buff    []byte
		escaped bool
	)

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch {
		case escaped:
			buff = append(buff, c)
			escaped = false
		case c == '\\':
			if buff == nil {
				buff = append(make([]byte, 0, len(data)), data[:i]...)
			}

			escaped = true
		case c == '"':
			if buff == nil {
				value = data[:i]
			} else {
				value = string(buff)
			}

			rest = LStripWS(data[i+1:])
			switch {
			case len(rest) == 0:
				return value, "", true
			case rest[0] == ';':
				return value, rest[1:], true
			default:
				return "", "", false
			}
		default:
			if buff != nil {
				buff = append(buff, c)
			}
		}
	}

	return "", "", false
}
