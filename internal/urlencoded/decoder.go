package urlencoded

import (
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/internal/hexconv"
	"github.com/indigo-web/utils/uf"
)

// ExtendedDecode decodes percent-encoded sequences and plus-signs (as spaces) from src.
// When src contains nothing to decode, it's returned as-is and dst stays untouched.
// Otherwise, the decoded value is appended to dst, so the returned buffer must be
// used for consequent calls.
func ExtendedDecode(src, dst []byte) (decoded, buffer []byte, err error) {
	dsthead := len(dst)
	modified := false

loop:
	for i, c := range src {
		switch c {
		case '+':
			modified = true
			dst = append(dst, src[:i]...)
			dst = append(dst, ' ')
			src = src[i+1:]
			goto loop
		case '%':
			modified = true

			if len(src)-i < 3 {
				return nil, dst, status.ErrURLDecoding
			}

			a, b := hexconv.Halfbyte[src[i+1]], hexconv.Halfbyte[src[i+2]]
			if a|b > 0x0f {
				return nil, dst, status.ErrURLDecoding
			}

			dst = append(dst, src[:i]...)
			dst = append(dst, (a<<4)|b)
			src = src[i+3:]
			goto loop
		}
	}

	if !modified {
		return src, dst, nil
	}

	dst = append(dst, src...)
	return dst[dsthead:], dst, nil
}

// ExtendedDecodeString is ExtendedDecode operating on strings. The returned string
// may share memory with buff, therefore buff must not be reused while the string is alive.
func ExtendedDecodeString(src string, buff []byte) (decoded string, buffer []byte, err error) {
	d, buffer, err := ExtendedDecode(uf.S2B(src), buff)
	return uf.B2S(d), buffer, err
}
