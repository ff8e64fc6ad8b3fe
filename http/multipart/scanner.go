// Package multipart implements incremental scanning of multipart bodies (RFC 2046). The
// scanners never block and never buffer by themselves: they are fed with whatever data is
// available and tell how much of it is consumed and what must be kept until more arrives.
package multipart

import (
	"bytes"
	"errors"

	"github.com/indigo-web/exchange/internal/strutil"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/utils/uf"
)

var (
	ErrBadHeader       = errors.New("malformed part header")
	ErrDuplicateHeader = errors.New("duplicate part header")
	ErrBadDelimiter    = errors.New("malformed boundary delimiter")
)

// Result tells the outcome of ParseHeaders.
type Result uint8

const (
	// More means more data is required. The returned rest must be kept and prepended
	// to the next piece of data.
	More Result = iota
	// OK means the part headers were parsed.
	OK
	// Done means the close delimiter was reached, there are no more parts.
	Done
)

func (r Result) String() string {
	switch r {
	case More:
		return "more"
	case OK:
		return "ok"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// ParseHeaders skips everything until the next delimiter of the boundary and parses the
// headers block following it. Every delimiter is preceded by a CRLF, which is considered
// a part of it, except the one at the very start of the body: first tells whether the
// data begins there. Bytes preceding the delimiter are discarded, e.g. preamble or an
// unread part body.
//
// On More, rest holds the data to be kept; bytes which can't belong to a delimiter are
// already dropped from it, so the data doesn't begin at the start of the body anymore
// if rest is shorter. On OK, rest starts with the part body. On Done, rest is
// the epilogue.
func ParseHeaders(data []byte, boundary string, first bool) (headers *kv.Storage, rest []byte, res Result, err error) {
	start, size, found := findDelimiter(data, boundary, first)
	if !found {
		return nil, data[start:], More, nil
	}

	data = data[start:]
	afterBoundary := data[size:]

	if len(afterBoundary) < 2 {
		return nil, data, More, nil
	}

	if afterBoundary[0] == '-' && afterBoundary[1] == '-' {
		return nil, afterBoundary[2:], Done, nil
	}

	// transport padding, RFC 2046, 5.1.1
	line := bytes.TrimLeft(afterBoundary, " \t")
	switch {
	case len(line) < 2:
		return nil, data, More, nil
	case line[0] != '\r' || line[1] != '\n':
		return nil, nil, More, ErrBadDelimiter
	}

	block := line[2:]
	var end int

	if len(block) >= 2 && block[0] == '\r' && block[1] == '\n' {
		// no headers at all
		end = 0
	} else if end = bytes.Index(block, []byte("\r\n\r\n")); end == -1 {
		return nil, data, More, nil
	} else {
		end += 2
	}

	headers, err = parseHeaderLines(block[:end])
	if err != nil {
		return nil, nil, More, err
	}

	return headers, block[end+2:], OK, nil
}

// findDelimiter returns the offset and the size of the delimiter. The dash-boundary alone
// is accepted only at the beginning of the body, anywhere else it must follow a CRLF. When
// the delimiter isn't found, the returned offset points to the first byte which still may
// be a beginning of it.
func findDelimiter(data []byte, boundary string, first bool) (offset, size int, found bool) {
	delimiter := "\r\n--" + boundary
	dashBoundary := delimiter[2:]

	if first {
		if bytes.HasPrefix(data, uf.S2B(dashBoundary)) {
			return 0, len(dashBoundary), true
		}

		if len(data) < len(dashBoundary) && bytes.HasPrefix(uf.S2B(dashBoundary), data) {
			// the data is too short yet, but may still appear to be the very first delimiter
			return 0, 0, false
		}
	}

	if idx := bytes.Index(data, uf.S2B(delimiter)); idx != -1 {
		return idx, len(delimiter), true
	}

	return partialSuffix(data, delimiter), 0, false
}

// partialSuffix returns the offset of the longest suffix of the data being a proper prefix
// of the delimiter. If there's no such suffix, len(data) is returned.
func partialSuffix(data []byte, delimiter string) int {
	from := max(0, len(data)-len(delimiter)+1)

	for i := from; i < len(data); i++ {
		if data[i] == delimiter[0] && bytes.HasPrefix(uf.S2B(delimiter), data[i:]) {
			return i
		}
	}

	return len(data)
}

func parseHeaderLines(block []byte) (*kv.Storage, error) {
	headers := kv.New()

	for len(block) > 0 {
		eol := bytes.Index(block, []byte("\r\n"))
		if eol == -1 {
			return nil, ErrBadHeader
		}

		line := block[:eol]
		block = block[eol+2:]

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return nil, ErrBadHeader
		}

		name := string(line[:colon])
		if len(strutil.StripWS(name)) != len(name) {
			return nil, ErrBadHeader
		}

		if headers.Has(name) {
			return nil, ErrDuplicateHeader
		}

		headers.Add(name, strutil.StripWS(string(line[colon+1:])))
	}

	return headers, nil
}

// BodyResult tells the outcome of ParseBody.
type BodyResult uint8

const (
	// BodyMore means the whole returned body belongs to the part, and there's more of it
	// yet to come. The rest must be prepended to the next piece of data.
	BodyMore BodyResult = iota
	// BodyDone means the part is over. The rest starts with the next delimiter, including
	// the CRLF preceding it.
	BodyDone
)

// ParseBody extracts the part body from the data. Bytes which may be the beginning of the
// delimiter are held back in rest, as it can't be decided yet whether they belong to the
// body.
func ParseBody(data []byte, boundary string) (body, rest []byte, res BodyResult) {
	delimiter := "\r\n--" + boundary

	if idx := bytes.Index(data, uf.S2B(delimiter)); idx != -1 {
		return data[:idx], data[idx:], BodyDone
	}

	split := partialSuffix(data, delimiter)
	return data[:split], data[split:], BodyMore
}
