package http

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/indigo-web/exchange/http/cookie"
	"github.com/indigo-web/exchange/http/method"
	"github.com/indigo-web/exchange/http/mime"
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/exchange/transport"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// DateFormat is the IMF-fixdate format of the Date header, RFC 9110, 5.6.7.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Body is a response body. It's either Bytes or File.
type Body interface {
	size() int64
}

// Bytes is an in-memory body.
type Bytes []byte

func (b Bytes) size() int64 {
	return int64(len(b))
}

// File is a region of a file transmitted by the transport directly, without being read
// into the memory. Length must be set explicitly, as the file is never measured.
type File struct {
	Path   string
	Offset int64
	Length int64
}

func (f File) size() int64 {
	return f.Length
}

// JSON marshals the model into a body.
func JSON(model any) (Bytes, error) {
	return json.ConfigDefault.Marshal(model)
}

// SetRespHeader stages the response header, replacing any previously staged values of it.
func (r Request) SetRespHeader(name, value string) Request {
	r.respHeaders = r.respHeaders.Clone().Set(name, value)
	return r
}

// SetRespHeaders stages every header, replacing previously staged values of the same keys.
func (r Request) SetRespHeaders(headers Headers) Request {
	r.respHeaders = override(r.respHeaders.Clone(), headers)
	return r
}

func (r Request) HasRespHeader(name string) bool {
	return r.respHeaders.Has(name)
}

func (r Request) RespHeader(name, def string) string {
	return r.respHeaders.ValueOr(name, def)
}

func (r Request) DeleteRespHeader(name string) Request {
	if r.respHeaders.Has(name) {
		r.respHeaders = r.respHeaders.Clone().Delete(name)
	}

	return r
}

// SetRespCookie stages the cookie. Cookies with the same name replace each other.
func (r Request) SetRespCookie(c cookie.Cookie) (Request, error) {
	if !c.Valid() {
		return r, ErrInvalidCookie
	}

	r.respCookies = r.respCookies.Clone().Set(c.Name, c.Render())
	return r, nil
}

// SetRespBody stages the body to be sent by ReplyStaged.
func (r Request) SetRespBody(body Body) Request {
	r.respBody = body
	return r
}

func (r Request) HasRespBody() bool {
	return r.respBody != nil
}

// Reply sends the complete response. Content-Length is always computed from the body,
// overriding whatever is passed in headers, and omitted for 204 No Content. The length
// of a File body is taken as is. The staged headers, cookies and body are sent as well,
// the headers passed explicitly take precedence over the staged ones.
//
// For HEAD requests, the body isn't sent, however Content-Length still tells its real size.
func (r Request) Reply(code status.Code, headers Headers, body Body) (Request, error) {
	if r.state != notSent {
		r.sess.log.Warn("response sent twice", zap.Int("code", int(code)))
		return r, ErrAlreadySent
	}

	if body == nil {
		body = Bytes(nil)
	}

	final, err := r.assemble(code, headers, body)
	if err != nil {
		return r, err
	}

	resp := transport.Response{
		Code:    code,
		Headers: final,
	}

	if r.method != method.HEAD {
		switch b := body.(type) {
		case Bytes:
			resp.Body = b
		case File:
			resp.File = &transport.File{Path: b.Path, Offset: b.Offset, Length: b.Length}
		}
	}

	r.send(resp)

	return r.markSent(sent), nil
}

// ReplyStaged sends the complete response with the staged body, if any.
func (r Request) ReplyStaged(code status.Code, headers Headers) (Request, error) {
	return r.Reply(code, headers, r.respBody)
}

// ReplyJSON marshals the model and sends it as the response body. Content-Type defaults
// to application/json.
func (r Request) ReplyJSON(code status.Code, model any) (Request, error) {
	body, err := JSON(model)
	if err != nil {
		return r, err
	}

	if !r.respHeaders.Has("content-type") {
		r = r.SetRespHeader("content-type", mime.JSON)
	}

	return r.Reply(code, nil, body)
}

// StreamReply sends the response headers, so the body can be streamed via StreamBody.
// Content-Length isn't computed.
func (r Request) StreamReply(code status.Code, headers Headers) (Request, error) {
	if r.state != notSent {
		r.sess.log.Warn("response sent twice", zap.Int("code", int(code)))
		return r, ErrAlreadySent
	}

	final := r.mergeHeaders(headers)
	r.appendCookies(final)
	r.send(transport.StreamHeaders{Code: code, Headers: final})

	return r.markSent(headersSent), nil
}

// StreamBody sends a piece of the streamed response body. Empty non-final pieces are
// omitted. The final piece completes the response. Calls on HEAD requests only
// track the state.
func (r Request) StreamBody(data []byte, fin transport.Finality) (Request, error) {
	if err := r.streaming(); err != nil {
		return r, err
	}

	switch {
	case r.method == method.HEAD:
	case len(data) == 0 && !bool(fin):
		return r, nil
	default:
		r.send(transport.StreamData{Fin: fin, Data: data})
	}

	if fin {
		r.state = sent
	}

	return r, nil
}

// StreamTrailers completes the streamed response with trailer fields.
func (r Request) StreamTrailers(trailers Headers) (Request, error) {
	if err := r.streaming(); err != nil {
		return r, err
	}

	if r.method != method.HEAD {
		r.send(transport.StreamTrailers{Headers: trailers.Clone()})
	}

	r.state = sent
	return r, nil
}

func (r Request) streaming() error {
	switch r.state {
	case notSent:
		return ErrHeadersNotSent
	case sent:
		r.sess.log.Warn("streaming into a complete response")
		return ErrAlreadySent
	default:
		return nil
	}
}

// Inform sends an informational response. It must precede the final response.
func (r Request) Inform(code status.Code, headers Headers) error {
	if r.state != notSent {
		r.sess.log.Warn("informational response after the final one", zap.Int("code", int(code)))
		return ErrInformAfterResponse
	}

	if !status.Informational(code) {
		return ErrNotInformational
	}

	r.send(transport.Inform{Code: code, Headers: headers.Clone()})
	return nil
}

// PushOptions override the pushed request. Zero values inherit the method GET, and the
// scheme, host and port of the current request. The query is empty unless set.
type PushOptions struct {
	Method method.Method
	Scheme string
	Host   string
	Port   int
	Query  string
}

// Push promises the client the response to a request for the path. It's a no-op
// for protocols not supporting the server push, as the coordinator drops it.
func (r Request) Push(path string, headers Headers, opts PushOptions) {
	if opts.Method == method.Unknown {
		opts.Method = method.GET
	}

	if len(opts.Scheme) == 0 {
		opts.Scheme = r.scheme
	}

	if len(opts.Host) == 0 {
		opts.Host = r.host
	}

	if opts.Port == 0 {
		opts.Port = r.port
	}

	r.send(transport.PushPromise{
		Method:  opts.Method.String(),
		Scheme:  opts.Scheme,
		Host:    opts.Host,
		Port:    opts.Port,
		Path:    path,
		Query:   opts.Query,
		Headers: headers.Clone(),
	})
}

// assemble computes the final header set of the complete response.
func (r Request) assemble(code status.Code, headers Headers, body Body) (Headers, error) {
	final := r.mergeHeaders(headers)

	if code == status.NoContent {
		final.Delete("content-length")
	} else {
		if file, ok := body.(File); ok && file.Length <= 0 {
			return nil, ErrZeroLengthFile
		}

		final.Set("content-length", strconv.FormatInt(body.size(), 10))
	}

	r.appendCookies(final)

	return final, nil
}

// mergeHeaders combines the staged headers, the passed ones and the defaults, in order
// of decreasing priority.
func (r Request) mergeHeaders(headers Headers) Headers {
	return override(r.respHeaders.Clone(), headers).Merge(r.defaultHeaders())
}

func (r Request) defaultHeaders() Headers {
	cfg := r.sess.cfg.Headers
	defaults := kv.NewPrealloc(2+len(cfg.Default)).
		Add("date", time.Now().UTC().Format(DateFormat))

	if len(cfg.Server) > 0 {
		defaults.Add("server", cfg.Server)
	}

	for _, key := range slices.Sorted(maps.Keys(cfg.Default)) {
		defaults.Add(key, cfg.Default[key])
	}

	return defaults
}

func (r Request) appendCookies(headers Headers) {
	for _, rendered := range r.respCookies.Pairs() {
		headers.Add("set-cookie", rendered)
	}
}

func (r Request) send(msg transport.Message) {
	r.sess.log.Debug("dispatching", zap.String("frame", fmt.Sprintf("%T", msg)))
	r.sess.peer.Send(r.sess.stream, msg)
}

// markSent clears the staged response and moves to the state.
func (r Request) markSent(state sendState) Request {
	r.respHeaders, r.respCookies, r.respBody = nil, nil, nil
	r.state = state
	return r
}

// override replaces the values of dst by the values of src with the same keys.
func override(dst, src Headers) Headers {
	for key := range src.Keys() {
		dst.Delete(key)
		for value := range src.Values(key) {
			dst.Add(key, value)
		}
	}

	return dst
}
