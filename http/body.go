package http

import (
	"context"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/exchange/config"
	"github.com/indigo-web/exchange/http/fields"
	"github.com/indigo-web/exchange/http/mime"
	"github.com/indigo-web/exchange/http/query"
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/exchange/transport"
	json "github.com/json-iterator/go"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

const tokenLength = 16

// Chunk is a piece of the request body. Fin is set on the last one.
type Chunk struct {
	Data []byte
	Fin  bool
}

// ReadBody requests the next chunk of the body from the transport and waits for it at most
// opts.Timeout. Zero fields of opts are taken from the config. Once the body is completely
// read, every consequent call returns an empty final chunk immediately.
//
// Hitting the timeout results in status.ErrBodyReadTimeout. The request can't be recovered
// after that and must be terminated.
func (r Request) ReadBody(ctx context.Context, opts config.Read) (Chunk, Request, error) {
	if !r.hasBody || r.bodyRead {
		return Chunk{Fin: true}, r, nil
	}

	opts = opts.Merge(r.sess.cfg.Body.Read)
	reply, err := r.exchange(ctx, opts)
	if err != nil {
		return Chunk{}, r, err
	}

	if reply.Fin {
		r.bodyRead = true
		r.bodyLength = reply.Length
	}

	return Chunk{Data: reply.Data, Fin: bool(reply.Fin)}, r, nil
}

// exchange sends a read request bearing a fresh token and waits for the answer with the
// same token. Everything else arriving meanwhile is dropped.
func (r Request) exchange(ctx context.Context, opts config.Read) (transport.BodyChunk, error) {
	token := uniuri.NewLen(tokenLength)
	r.sess.peer.Send(r.sess.stream, transport.ReadBody{
		Token:  token,
		Length: opts.Length,
		Period: opts.Period,
	})

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-r.sess.inbox:
			if !ok {
				return transport.BodyChunk{}, ErrInboxClosed
			}

			if chunk, ok := msg.(transport.BodyChunk); ok && chunk.Token == token {
				return chunk, nil
			}

			r.sess.log.Debug("discarding unexpected message", zap.String("token", token), zap.Any("message", msg))
		case <-timer.C:
			r.sess.log.Warn("body read timed out", zap.Duration("timeout", opts.Timeout))
			return transport.BodyChunk{}, status.ErrBodyReadTimeout
		case <-ctx.Done():
			return transport.BodyChunk{}, ctx.Err()
		}
	}
}

// ReadFullBody reads the body until it's over. opts.Length is the limit of the whole body
// in this case, exceeding it results in status.ErrBodyTooLarge.
func (r Request) ReadFullBody(ctx context.Context, opts config.Read) ([]byte, Request, error) {
	opts = opts.Merge(r.sess.cfg.Body.Read)
	if r.bodyLength > int64(opts.Length) {
		return nil, r, status.ErrBodyTooLarge
	}

	var body []byte

	for {
		chunk, next, err := r.ReadBody(ctx, opts)
		r = next
		if err != nil {
			return nil, r, err
		}

		body = append(body, chunk.Data...)
		if len(body) > opts.Length {
			return nil, r, status.ErrBodyTooLarge
		}

		if chunk.Fin {
			return body, r, nil
		}
	}
}

// ReadURLEncodedBody reads and parses an application/x-www-form-urlencoded body. Zero fields
// of opts are taken from the config's form section. Chunks shorter than opts.Length are
// gathered until the body is over. Once opts.Length bytes are gathered and the body still
// isn't over, the read fails with status.ErrBodyTooLarge. A client which stops sending in
// the middle fails the read with status.ErrBodyReadTimeout.
func (r Request) ReadURLEncodedBody(ctx context.Context, opts config.Read) (query.Params, Request, error) {
	if !mime.Complies(mime.FormUrlencoded, r.headers.Value("content-type")) {
		return nil, r, status.ErrUnsupportedMediaType
	}

	opts = opts.Merge(r.sess.cfg.Form.Read)

	buff := bytebufferpool.Get()
	defer bytebufferpool.Put(buff)

	for {
		chunk, next, err := r.ReadBody(ctx, opts)
		r = next
		if err != nil {
			return nil, r, err
		}

		_, _ = buff.Write(chunk.Data)
		if chunk.Fin {
			break
		}

		if buff.Len() >= opts.Length {
			return nil, r, status.ErrBodyTooLarge
		}
	}

	params := kv.New()
	// the buffer goes back to the pool, so the parsed values must not reference it
	if err := query.Parse(params, buff.String(), r.sess.cfg.Form.FlagValue); err != nil {
		return nil, r, err
	}

	return params, r, nil
}

// ReadAndMatchURLEncodedBody reads the url-encoded body and matches it against the spec.
func (r Request) ReadAndMatchURLEncodedBody(ctx context.Context, spec fields.Spec, opts config.Read) (map[string]any, Request, error) {
	params, r, err := r.ReadURLEncodedBody(ctx, opts)
	if err != nil {
		return nil, r, err
	}

	values, err := fields.Match(spec, params.Pairs())
	return values, r, err
}

// ReadJSON reads the whole body and unmarshalls it into the model. Requests with a
// Content-Type other than application/json are rejected with status.ErrUnsupportedMediaType.
func (r Request) ReadJSON(ctx context.Context, model any, opts config.Read) (Request, error) {
	if !mime.Complies(mime.JSON, r.headers.Value("content-type")) {
		return r, status.ErrUnsupportedMediaType
	}

	data, r, err := r.ReadFullBody(ctx, opts)
	if err != nil {
		return r, err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	if err != nil {
		return r, status.Malformed("body", status.ErrBadJSON, "%s", err)
	}

	return r, nil
}
