// Package http is the per-request API: an immutable request snapshot, flow-controlled body
// reading, multipart decoding and response dispatch to the connection coordinator.
package http

import (
	"crypto/x509"
	"net"

	"github.com/indigo-web/exchange/config"
	"github.com/indigo-web/exchange/http/cookie"
	"github.com/indigo-web/exchange/http/method"
	"github.com/indigo-web/exchange/http/mime"
	"github.com/indigo-web/exchange/http/proto"
	"github.com/indigo-web/exchange/http/query"
	"github.com/indigo-web/exchange/internal/strutil"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/exchange/transport"
	"go.uber.org/zap"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
)

// Init carries everything the transport knows about the request at the moment the
// handler is invoked.
type Init struct {
	// Peer is the coordinator of the connection and Stream identifies the request within it.
	Peer   transport.Peer
	Stream transport.StreamID
	// Inbox delivers the coordinator's answers addressed to the stream.
	Inbox  <-chan transport.Message
	Config *config.Config
	// Logger defaults to a no-op one.
	Logger *zap.Logger

	Method   method.Method
	Protocol proto.Protocol
	Remote   net.Addr
	Local    net.Addr
	Cert     *x509.Certificate
	Scheme   string
	Host     string
	Port     int
	Path     string
	Query    string
	Headers  Headers
	// Bindings, HostInfo and PathInfo are set by the router, if there's any.
	Bindings *kv.Storage
	HostInfo []string
	PathInfo []string

	HasBody bool
	// BodyLength is the length of the body if known in advance, e.g. from Content-Length.
	// Non-positive values mean the length is unknown.
	BodyLength int64
}

// session holds what doesn't change across the snapshots of the same request.
type session struct {
	peer   transport.Peer
	stream transport.StreamID
	inbox  <-chan transport.Message
	cfg    *config.Config
	log    *zap.Logger
}

type sendState uint8

const (
	notSent sendState = iota
	headersSent
	sent
)

// Request is an immutable snapshot of the request and of the response staged for it.
// Methods changing anything return a new snapshot, which must be used further instead
// of the old one. Snapshots are safe to be kept around, but they aren't coordinated,
// so sending a response via two different snapshots isn't detected.
type Request struct {
	sess *session

	method   method.Method
	protocol proto.Protocol
	remote   net.Addr
	local    net.Addr
	cert     *x509.Certificate
	scheme   string
	host     string
	port     int
	path     string
	query    string
	headers  Headers
	bindings *kv.Storage
	hostInfo []string
	pathInfo []string

	hasBody    bool
	bodyLength int64
	bodyRead   bool
	multipart  multipartState

	respHeaders *kv.Storage
	respCookies *kv.Storage
	respBody    Body
	state       sendState
}

func NewRequest(init Init) Request {
	cfg := init.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := init.Logger
	if log == nil {
		log = zap.NewNop()
	}

	headers := init.Headers
	if headers == nil {
		headers = kv.New()
	}

	bodyLength := int64(-1)
	switch {
	case !init.HasBody:
		bodyLength = 0
	case init.BodyLength > 0:
		bodyLength = init.BodyLength
	}

	return Request{
		sess: &session{
			peer:   init.Peer,
			stream: init.Stream,
			inbox:  init.Inbox,
			cfg:    cfg,
			log:    log.With(zap.Uint32("stream", uint32(init.Stream))),
		},
		method:     init.Method,
		protocol:   init.Protocol,
		remote:     init.Remote,
		local:      init.Local,
		cert:       init.Cert,
		scheme:     init.Scheme,
		host:       init.Host,
		port:       init.Port,
		path:       init.Path,
		query:      init.Query,
		headers:    headers,
		bindings:   init.Bindings,
		hostInfo:   init.HostInfo,
		pathInfo:   init.PathInfo,
		hasBody:    init.HasBody,
		bodyLength: bodyLength,
	}
}

func (r Request) Method() method.Method { return r.method }
func (r Request) Version() proto.Protocol { return r.protocol }
func (r Request) Peer() net.Addr { return r.remote }
func (r Request) Sock() net.Addr { return r.local }
func (r Request) Cert() *x509.Certificate { return r.cert }
func (r Request) Scheme() string { return r.scheme }
func (r Request) Host() string { return r.host }
func (r Request) Port() int { return r.port }
func (r Request) Path() string { return r.path }
func (r Request) Query() string { return r.query }
func (r Request) HostInfo() []string { return r.hostInfo }
func (r Request) PathInfo() []string { return r.pathInfo }
func (r Request) Logger() *zap.Logger { return r.sess.log }
func (r Request) Config() *config.Config { return r.sess.cfg }
func (r Request) Stream() transport.StreamID { return r.sess.stream }

// Header returns the first value of the header or def if there's none.
func (r Request) Header(name, def string) string {
	return r.headers.ValueOr(name, def)
}

// Headers returns a copy of the request headers.
func (r Request) Headers() Headers {
	return r.headers.Clone()
}

// Binding returns the value of the path binding or def if there's none.
func (r Request) Binding(name, def string) string {
	return r.bindings.ValueOr(name, def)
}

// Bindings returns a copy of the path bindings. It's empty if no router was involved.
func (r Request) Bindings() *kv.Storage {
	return r.bindings.Clone()
}

// HasBody tells whether the request carries a body at all.
func (r Request) HasBody() bool {
	return r.hasBody
}

// BodyLength returns the body length, or -1 if it isn't known. The length is known
// either in advance or once the body is completely read.
func (r Request) BodyLength() int64 {
	return r.bodyLength
}

// ContentType returns the media type of the body without parameters, e.g. text/html.
func (r Request) ContentType() mime.MIME {
	value, _ := strutil.CutHeader(r.headers.Value("content-type"))
	return value
}

// ParseQuery parses the query string into ordered pairs. Duplicate keys are kept.
func (r Request) ParseQuery() (query.Params, error) {
	params := kv.New()
	if err := query.Parse(params, r.query, r.sess.cfg.Form.FlagValue); err != nil {
		return nil, err
	}

	return params, nil
}

// ParseCookies parses every Cookie header into ordered pairs.
func (r Request) ParseCookies() (cookie.Jar, error) {
	jar := cookie.NewJar()

	// cookies may be split into multiple headers in HTTP/2 (RFC 9113, 8.2.3), and some
	// user-agents do the same over HTTP/1.1 too
	for value := range r.headers.Values("cookie") {
		if err := cookie.Parse(jar, value); err != nil {
			return nil, err
		}
	}

	return jar, nil
}
