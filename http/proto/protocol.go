package proto

type Protocol uint8

const (
	Unknown Protocol = 0
	HTTP10  Protocol = 1 << iota
	HTTP11
	HTTP2
	HTTP3

	HTTP1 = HTTP10 | HTTP11
)

func (p Protocol) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2"
	case HTTP3:
		return "HTTP/3"
	default:
		return ""
	}
}

// Multiplexed tells whether the protocol carries multiple streams over a single
// connection, which is the only case server push can be meaningful.
func (p Protocol) Multiplexed() bool {
	return p == HTTP2 || p == HTTP3
}

var majorMinorVersionLUT = [10][10]Protocol{
	1: {0: HTTP10, 1: HTTP11},
	2: {0: HTTP2},
	3: {0: HTTP3},
}

// FromString parses the protocol token, e.g. HTTP/1.1 or HTTP/2.
func FromString(token string) Protocol {
	const httpScheme = "HTTP/"

	if len(token) <= len(httpScheme) || token[:len(httpScheme)] != httpScheme {
		return Unknown
	}

	switch version := token[len(httpScheme):]; len(version) {
	case 1:
		return Parse(version[0]-'0', 0)
	case 3:
		if version[1] != '.' {
			return Unknown
		}

		return Parse(version[0]-'0', version[2]-'0')
	default:
		return Unknown
	}
}

func Parse(major, minor uint8) Protocol {
	if major > 9 || minor > 9 {
		return Unknown
	}

	return majorMinorVersionLUT[major][minor]
}
