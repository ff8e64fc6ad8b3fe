package http

import (
	"context"
	"io"
	"slices"

	"github.com/indigo-web/exchange/config"
	"github.com/indigo-web/exchange/http/mime"
	"github.com/indigo-web/exchange/http/multipart"
	"github.com/indigo-web/exchange/http/status"
)

type multipartStatus uint8

const (
	multipartAbsent multipartStatus = iota
	multipartActive
	multipartDone
)

type multipartState struct {
	status   multipartStatus
	boundary string
	// buffer holds the data received but not consumed yet. It may be shared between
	// snapshots, therefore is never appended to in place.
	buffer []byte
	inPart bool
	// started is set once the buffer doesn't begin at the very start of the body anymore.
	started bool
}

// ReadPart skips to the next part of the multipart body and returns its headers. The rest
// of the previous part's body, if wasn't read, is discarded. io.EOF is returned when there
// are no more parts. Zero fields of opts are taken from the config's multipart headers
// section.
func (r Request) ReadPart(ctx context.Context, opts config.Read) (Headers, Request, error) {
	r, err := r.initMultipart()
	if err != nil {
		return nil, r, err
	}

	if r.multipart.status == multipartDone {
		return nil, r, io.EOF
	}

	opts = opts.Merge(r.sess.cfg.Multipart.Headers)
	buffer := r.multipart.buffer

	for {
		headers, rest, res, err := multipart.ParseHeaders(buffer, r.multipart.boundary, !r.multipart.started)
		if err != nil {
			return nil, r, status.Malformed("multipart", status.ErrMalformedMultipart, "%s", err)
		}

		if len(rest) < len(buffer) {
			r.multipart.started = true
		}

		switch res {
		case multipart.OK:
			r.multipart.buffer = rest
			r.multipart.inPart = true
			return headers, r, nil
		case multipart.Done:
			// the epilogue must be ignored, RFC 2046, 5.1.1
			r.multipart = multipartState{status: multipartDone}
			return nil, r, io.EOF
		}

		if r.bodyRead {
			return nil, r, status.Malformed("multipart", status.ErrMalformedMultipart, "body ended before the delimiter")
		}

		var chunk Chunk
		chunk, r, err = r.ReadBody(ctx, opts)
		if err != nil {
			return nil, r, err
		}

		buffer = append(slices.Clip(rest), chunk.Data...)
		r.multipart.buffer = buffer
	}
}

// ReadPartBody returns the body of the current part. If the body is larger than
// opts.Length, it's returned partially and the following calls return the rest of it.
// The last chunk of the part is marked by Fin. Zero fields of opts are taken from
// the config's multipart body section.
//
// ReadPart must be called first, otherwise ErrNoPart is returned.
func (r Request) ReadPartBody(ctx context.Context, opts config.Read) (Chunk, Request, error) {
	if r.multipart.status != multipartActive || !r.multipart.inPart {
		return Chunk{}, r, ErrNoPart
	}

	opts = opts.Merge(r.sess.cfg.Multipart.Body)
	buffer := r.multipart.buffer
	var body []byte

	for {
		fragment, rest, res := multipart.ParseBody(buffer, r.multipart.boundary)
		body = append(body, fragment...)

		switch {
		case res == multipart.BodyDone:
			r.multipart.buffer = rest
			r.multipart.inPart = false
			return Chunk{Data: body, Fin: true}, r, nil
		case len(body) >= opts.Length:
			r.multipart.buffer = rest
			return Chunk{Data: body}, r, nil
		case r.bodyRead:
			return Chunk{}, r, status.Malformed("multipart", status.ErrMalformedMultipart, "body ended inside of a part")
		}

		chunk, next, err := r.ReadBody(ctx, config.Read{
			Length:  opts.Length - len(body),
			Period:  opts.Period,
			Timeout: opts.Timeout,
		})
		r = next
		if err != nil {
			return Chunk{}, r, err
		}

		buffer = append(slices.Clip(rest), chunk.Data...)
	}
}

func (r Request) initMultipart() (Request, error) {
	if r.multipart.status != multipartAbsent {
		return r, nil
	}

	contentType := r.headers.Value("content-type")
	if !mime.IsMultipart(contentType) {
		return r, status.ErrUnsupportedMediaType
	}

	boundary, ok := multipart.Boundary(contentType)
	if !ok {
		return r, status.Malformed("content-type", status.ErrMissingBoundary, "no valid boundary parameter")
	}

	r.multipart = multipartState{
		status:   multipartActive,
		boundary: boundary,
	}

	return r, nil
}

// MultipartBoundary returns the boundary of a multipart body, parsing it if needed.
func (r Request) MultipartBoundary() (string, Request, error) {
	r, err := r.initMultipart()
	if err != nil {
		return "", r, err
	}

	return r.multipart.boundary, r, nil
}
